// Package ledger holds the ordered transcript of a single discussion.
package ledger

import (
	"strings"
	"sync"
	"time"
)

// Turn is one recorded utterance. Index equals the append position.
type Turn struct {
	Speaker string
	Text    string
	Index   int
	At      time.Time
}

// Line renders the turn as "speaker: text".
func (t Turn) Line() string {
	return t.Speaker + ": " + t.Text
}

// placeholderSpeakers are labels that stand in for the human participant and
// are rewritten to the real display name by RenderContext.
var placeholderSpeakers = map[string]struct{}{
	"You":  {},
	"User": {},
}

// Ledger is an append-only transcript. Turns are never mutated or removed.
type Ledger struct {
	mu    sync.RWMutex
	turns []Turn
	now   func() time.Time
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{now: time.Now}
}

// Append records a turn and returns its index.
func (l *Ledger) Append(speaker, text string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := len(l.turns)
	l.turns = append(l.turns, Turn{Speaker: speaker, Text: text, Index: idx, At: l.now()})
	return idx
}

// Len reports the number of appended turns.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Turns returns a copy of every turn appended so far.
func (l *Ledger) Turns() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Last returns the most recent turn.
func (l *Ledger) Last() (Turn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}

// RecentWindow returns the last n turns formatted as "speaker: text", newest last.
func (l *Ledger) RecentWindow(n int) []string {
	if n <= 0 {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := len(l.turns) - n
	if start < 0 {
		start = 0
	}
	lines := make([]string, 0, len(l.turns)-start)
	for _, t := range l.turns[start:] {
		lines = append(lines, t.Line())
	}
	return lines
}

// RenderContext formats the whole ledger, replacing placeholder speaker labels
// such as "You" with username. Other labels are left untouched.
func (l *Ledger) RenderContext(username string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name := strings.TrimSpace(username)
	lines := make([]string, 0, len(l.turns))
	for _, t := range l.turns {
		if _, ok := placeholderSpeakers[t.Speaker]; ok && name != "" {
			t.Speaker = name
		}
		lines = append(lines, t.Line())
	}
	return lines
}
