package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestMenuNavigation(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "a"}, {Label: "b"}, {Label: "c", Disabled: true}}, 0)

	m = m.Update(special(tea.KeyUp))
	if m.Selected != 0 {
		t.Errorf("up at top: selected = %d, want 0", m.Selected)
	}
	m = m.Update(special(tea.KeyDown))
	m = m.Update(key('j'))
	if m.Selected != 2 {
		t.Errorf("selected = %d, want 2", m.Selected)
	}
	m = m.Update(special(tea.KeyDown))
	if m.Selected != 2 {
		t.Errorf("down at bottom: selected = %d, want 2", m.Selected)
	}

	item, ok := m.Current()
	if !ok || item.Label != "c" || !item.Disabled {
		t.Errorf("current = %+v, %v", item, ok)
	}
	if !strings.Contains(m.View(), "▸ c") {
		t.Errorf("view misses cursor:\n%s", m.View())
	}
}

func TestNewMenuClampsStart(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "a"}}, 5)
	if m.Selected != 0 {
		t.Errorf("selected = %d, want 0", m.Selected)
	}
}

func TestChoicePickByNumber(t *testing.T) {
	c := NewChoice([]string{"Salave", "Graçi", "Tu"})

	c, picked, ok := c.Update(key('2'))
	if !ok || picked != "Graçi" || c.Cursor != 1 {
		t.Fatalf("picked %q ok=%v cursor=%d", picked, ok, c.Cursor)
	}

	_, _, ok = c.Update(key('9'))
	if ok {
		t.Error("out of range number should not pick")
	}

	c, _, _ = c.Update(special(tea.KeyDown))
	c, picked, ok = c.Update(special(tea.KeySpace))
	if !ok || picked != "Tu" {
		t.Errorf("space picked %q ok=%v", picked, ok)
	}
}

func TestChoiceViewMarksGraded(t *testing.T) {
	c := NewChoice([]string{"Salave", "Graçi"})
	view := c.View(ChoiceState{Chosen: "Graçi", Graded: true, Correct: "salave"})
	if !strings.Contains(view, "● Graçi") {
		t.Errorf("chosen option not marked:\n%s", view)
	}
	if strings.Contains(view, "▸") {
		t.Errorf("cursor shown after grading:\n%s", view)
	}
}

func TestWordBankToggle(t *testing.T) {
	w := NewWordBank([]string{"Li", "tames", "Nalibone"})

	w, _, _ = w.Update(special(tea.KeyRight))
	w, _, _ = w.Update(key('l'))
	w, _, _ = w.Update(key('l'))
	if w.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2", w.Cursor)
	}
	_, word, ok := w.Update(special(tea.KeySpace))
	if !ok || word != "Nalibone" {
		t.Errorf("toggled %q ok=%v", word, ok)
	}
}

func TestAnswerLine(t *testing.T) {
	if got := AnswerLine(nil, "tap words"); !strings.Contains(got, "tap words") {
		t.Errorf("placeholder missing: %q", got)
	}
	if got := AnswerLine([]string{"Li", "tames"}, "x"); !strings.Contains(got, "Li tames") {
		t.Errorf("answer missing: %q", got)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		want        float64
	}{
		{0, 3, 0},
		{3, 3, 1},
		{5, 3, 1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		p := NewProgressBar(tt.done, tt.total, 30)
		if got := p.Percent(); got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.done, tt.total, got, tt.want)
		}
	}
	if !strings.Contains(NewProgressBar(1, 3, 30).View(), "1/3") {
		t.Error("counter missing from view")
	}
}
