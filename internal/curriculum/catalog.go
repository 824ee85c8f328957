package curriculum

import (
	"fmt"
	"slices"
	"sort"
)

// Catalog is an ordered, indexed set of lessons.
type Catalog struct {
	lessons []Lesson
	byID    map[string]int
}

// NewCatalog sorts lessons by Order and indexes them by ID.
// Duplicate IDs are rejected.
func NewCatalog(lessons []Lesson) (*Catalog, error) {
	sorted := slices.Clone(lessons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	c := &Catalog{
		lessons: sorted,
		byID:    make(map[string]int, len(sorted)),
	}
	for i, l := range sorted {
		if _, dup := c.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson id %q", l.ID)
		}
		c.byID[l.ID] = i
	}
	return c, nil
}

// Lessons returns all lessons in path order.
func (c *Catalog) Lessons() []Lesson {
	return slices.Clone(c.lessons)
}

// Len returns the number of lessons.
func (c *Catalog) Len() int {
	return len(c.lessons)
}

// Lesson returns a lesson by ID, or error if not found.
func (c *Catalog) Lesson(id string) (Lesson, error) {
	i, ok := c.byID[id]
	if !ok {
		return Lesson{}, fmt.Errorf("lesson not found: %q", id)
	}
	return c.lessons[i], nil
}

// Index returns the path position of a lesson, or -1.
func (c *Catalog) Index(id string) int {
	i, ok := c.byID[id]
	if !ok {
		return -1
	}
	return i
}

// First returns the ID of the first lesson on the path, or "".
func (c *Catalog) First() string {
	if len(c.lessons) == 0 {
		return ""
	}
	return c.lessons[0].ID
}

// Next returns the ID of the lesson after id, or "" if none.
func (c *Catalog) Next(id string) string {
	i, ok := c.byID[id]
	if !ok || i+1 >= len(c.lessons) {
		return ""
	}
	return c.lessons[i+1].ID
}

// Previous returns the ID of the lesson before id, or "" for the first
// lesson and unknown IDs.
func (c *Catalog) Previous(id string) string {
	i, ok := c.byID[id]
	if !ok || i == 0 {
		return ""
	}
	return c.lessons[i-1].ID
}

// IsUnlocked reports whether the lesson may be selected. The first lesson
// is always unlocked; any other lesson requires its predecessor in the
// completed set. Unknown IDs are locked.
func (c *Catalog) IsUnlocked(id string, completed []string) bool {
	i, ok := c.byID[id]
	if !ok {
		return false
	}
	if i == 0 {
		return true
	}
	return slices.Contains(completed, c.lessons[i-1].ID)
}
