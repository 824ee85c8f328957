package curriculum

import (
	"testing"
	"testing/fstest"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()
	if c.Len() != 8 {
		t.Fatalf("got %d lessons, want 8", c.Len())
	}
	if c.First() != "1" {
		t.Errorf("First() = %q, want %q", c.First(), "1")
	}
	for i, l := range c.Lessons() {
		if l.Order != i+1 {
			t.Errorf("lesson %q at position %d has order %d", l.ID, i, l.Order)
		}
		if len(l.Exercises) == 0 {
			t.Errorf("lesson %q has no exercises", l.ID)
		}
	}
}

func TestDefault_FirstLessonContent(t *testing.T) {
	l, err := Default().Lesson("1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Level != LevelNoviceLow {
		t.Errorf("level = %q, want %q", l.Level, LevelNoviceLow)
	}
	if len(l.Exercises) != 3 {
		t.Fatalf("got %d exercises, want 3", len(l.Exercises))
	}
	if l.Exercises[0].Type != Matching || len(l.Exercises[0].Pairs) != 4 {
		t.Errorf("first exercise should be a 4-pair matching, got %q with %d pairs",
			l.Exercises[0].Type, len(l.Exercises[0].Pairs))
	}
	if l.Exercises[1].Type != Speaking {
		t.Errorf("second exercise type = %q, want %q", l.Exercises[1].Type, Speaking)
	}
	if l.Exercises[2].CorrectAnswer != "Li tames Nalibone" {
		t.Errorf("sentence builder answer = %q", l.Exercises[2].CorrectAnswer)
	}
}

func TestLesson_NotFound(t *testing.T) {
	if _, err := Default().Lesson("99"); err == nil {
		t.Fatal("expected error for unknown lesson, got nil")
	}
}

func TestIsUnlocked(t *testing.T) {
	c := Default()
	tests := []struct {
		name      string
		id        string
		completed []string
		want      bool
	}{
		{"first always", "1", nil, true},
		{"second locked", "2", nil, false},
		{"second after first", "2", []string{"1"}, true},
		{"third needs second", "3", []string{"1"}, false},
		{"skipping does not unlock", "4", []string{"1", "2"}, false},
		{"last after seventh", "8", []string{"7"}, true},
		{"unknown", "42", []string{"1", "2"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.IsUnlocked(tc.id, tc.completed); got != tc.want {
				t.Errorf("IsUnlocked(%q, %v) = %v, want %v", tc.id, tc.completed, got, tc.want)
			}
		})
	}
}

func TestNextPrevious(t *testing.T) {
	c := Default()
	if got := c.Next("1"); got != "2" {
		t.Errorf("Next(1) = %q, want 2", got)
	}
	if got := c.Next("8"); got != "" {
		t.Errorf("Next(8) = %q, want empty", got)
	}
	if got := c.Previous("1"); got != "" {
		t.Errorf("Previous(1) = %q, want empty", got)
	}
	if got := c.Previous("5"); got != "4" {
		t.Errorf("Previous(5) = %q, want 4", got)
	}
}

func TestLoadFS_SortsByOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"d/b.json": {Data: []byte(`{"id":"b","order":2,"title":"B","level":"Novice Mid","exercises":[{"id":"b1","type":"TRANSLATION","prompt":"p","correct_answer":"x"}]}`)},
		"d/a.json": {Data: []byte(`{"id":"a","order":1,"title":"A","level":"Novice Low","exercises":[{"id":"a1","type":"MULTIPLE_CHOICE","prompt":"p","correct_answer":"x","options":["x","y"]}]}`)},
	}
	c, err := LoadFS(fsys, "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.First() != "a" || c.Next("a") != "b" {
		t.Errorf("unexpected order: %+v", c.Lessons())
	}
}

func TestLoadFS_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad level":     `{"id":"a","order":1,"title":"A","level":"Expert","exercises":[{"id":"a1","type":"TRANSLATION","prompt":"p","correct_answer":"x"}]}`,
		"no exercises":  `{"id":"a","order":1,"title":"A","level":"Novice Low","exercises":[]}`,
		"bad type":      `{"id":"a","order":1,"title":"A","level":"Novice Low","exercises":[{"id":"a1","type":"ESSAY","prompt":"p","correct_answer":"x"}]}`,
		"not json":      `{`,
		"missing title": `{"id":"a","order":1,"level":"Novice Low","exercises":[{"id":"a1","type":"TRANSLATION","prompt":"p","correct_answer":"x"}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := fstest.MapFS{"d/a.json": {Data: []byte(doc)}}
			if _, err := LoadFS(fsys, "d"); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNewCatalog_DuplicateID(t *testing.T) {
	_, err := NewCatalog([]Lesson{{ID: "1", Order: 1}, {ID: "1", Order: 2}})
	if err == nil {
		t.Fatal("expected duplicate id error, got nil")
	}
}
