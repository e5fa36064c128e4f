package ledger

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestAppend_IndexesAreContiguous(t *testing.T) {
	l := New()
	speakers := []string{"Moderator", "Riya", "Kabir", "Anaya", "Mokksh", "Riya"}
	for i, s := range speakers {
		if got := l.Append(s, fmt.Sprintf("line %d", i)); got != i {
			t.Fatalf("append %d returned index %d", i, got)
		}
	}
	for i, turn := range l.Turns() {
		if turn.Index != i {
			t.Fatalf("turn %d has index %d", i, turn.Index)
		}
	}
	if l.Len() != len(speakers) {
		t.Fatalf("expected %d turns, got %d", len(speakers), l.Len())
	}
}

func TestAppend_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			l.Append("Riya", "hi")
		}
	}()
	for i := 0; i < 50; i++ {
		for j, turn := range l.Turns() {
			if turn.Index != j {
				t.Fatalf("snapshot out of order: position %d index %d", j, turn.Index)
			}
		}
	}
	wg.Wait()
	if l.Len() != 200 {
		t.Fatalf("expected 200 turns, got %d", l.Len())
	}
}

func TestTurns_ReturnsCopy(t *testing.T) {
	l := New()
	l.Append("Riya", "original")
	snap := l.Turns()
	snap[0].Text = "changed"
	if l.Turns()[0].Text != "original" {
		t.Fatalf("ledger mutated through snapshot")
	}
}

func TestRecentWindow(t *testing.T) {
	l := New()
	l.Append("Moderator", "welcome")
	l.Append("Riya", "a")
	l.Append("Kabir", "b")

	cases := []struct {
		n    int
		want []string
	}{
		{0, nil},
		{2, []string{"Riya: a", "Kabir: b"}},
		{10, []string{"Moderator: welcome", "Riya: a", "Kabir: b"}},
	}
	for _, tc := range cases {
		got := l.RecentWindow(tc.n)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("RecentWindow(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestRenderContext_RewritesPlaceholder(t *testing.T) {
	l := New()
	l.Append("You", "hello")
	l.Append("Riya", "hi")
	got := l.RenderContext("Mokksh")
	want := []string{"Mokksh: hello", "Riya: hi"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
	// stored turns keep their original label
	if l.Turns()[0].Speaker != "You" {
		t.Fatalf("render must not mutate ledger")
	}
}

func TestRenderContext_EmptyUsernameKeepsLabel(t *testing.T) {
	l := New()
	l.Append("User", "hello")
	got := l.RenderContext("  ")
	if got[0] != "User: hello" {
		t.Fatalf("unexpected line %q", got[0])
	}
}
