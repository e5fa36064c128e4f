// Package roster defines the fixed set of discussion participants.
package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies how a participant takes part in a discussion.
type Role string

const (
	RoleModerator Role = "moderator"
	RoleAgent     Role = "agent"
	RoleUser      Role = "user"
)

// Participant is immutable once the roster is built.
type Participant struct {
	Name    string
	Role    Role
	Persona string
}

// Roster is process-wide, read-only configuration shared by every session.
type Roster struct {
	moderator Participant
	agents    []Participant
}

const (
	DefaultTopic    = "Is AI a threat to human jobs?"
	DefaultUsername = "Mokksh"
	DefaultLanguage = "en"
)

const introTemplate = "Welcome to our group discussion. Today, we'll be exploring the topic: '%s'. " +
	"I'll be moderating this discussion to ensure a productive exchange of ideas. " +
	"Each participant will share their perspective, and we encourage everyone, including our audience, to contribute thoughtfully. " +
	"Let's begin with our first speaker."

const conclusionTemplate = "Thank you everyone for a thoughtful discussion on '%s'. " +
	"We heard a wide range of perspectives today, and that brings our session to a close."

// Default returns the built-in moderator and three agents.
func Default() Roster {
	r, _ := New(
		Participant{Name: "Moderator", Role: RoleModerator},
		[]Participant{
			{Name: "Riya", Role: RoleAgent, Persona: "Optimistic tech enthusiast"},
			{Name: "Kabir", Role: RoleAgent, Persona: "Balanced economist"},
			{Name: "Anaya", Role: RoleAgent, Persona: "Critical social thinker"},
		},
	)
	return r
}

// New validates and builds a roster. Names must be unique and non-empty and
// every agent needs a persona.
func New(moderator Participant, agents []Participant) (Roster, error) {
	moderator.Role = RoleModerator
	if strings.TrimSpace(moderator.Name) == "" {
		return Roster{}, errors.New("roster: moderator name must not be empty")
	}
	if len(agents) == 0 {
		return Roster{}, errors.New("roster: at least one agent is required")
	}
	seen := map[string]struct{}{strings.ToLower(moderator.Name): {}}
	out := make([]Participant, 0, len(agents))
	for i, a := range agents {
		a.Role = RoleAgent
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return Roster{}, fmt.Errorf("roster: agent %d has no name", i)
		}
		if strings.TrimSpace(a.Persona) == "" {
			return Roster{}, fmt.Errorf("roster: agent %q has no persona", a.Name)
		}
		key := strings.ToLower(a.Name)
		if _, dup := seen[key]; dup {
			return Roster{}, fmt.Errorf("roster: duplicate participant name %q", a.Name)
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return Roster{moderator: moderator, agents: out}, nil
}

func (r Roster) Moderator() Participant { return r.moderator }

// Agents returns the agents in speaking order.
func (r Roster) Agents() []Participant {
	out := make([]Participant, len(r.agents))
	copy(out, r.agents)
	return out
}

// Has reports whether name is already taken by the moderator or an agent.
func (r Roster) Has(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if strings.ToLower(r.moderator.Name) == key {
		return true
	}
	for _, a := range r.agents {
		if strings.ToLower(a.Name) == key {
			return true
		}
	}
	return false
}

// Intro is the moderator's opening statement for topic.
func Intro(topic string) string { return fmt.Sprintf(introTemplate, topic) }

// Conclusion is the moderator's closing statement for topic.
func Conclusion(topic string) string { return fmt.Sprintf(conclusionTemplate, topic) }
