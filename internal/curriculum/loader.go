package curriculum

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

//go:embed data/*.json
var lessonData embed.FS

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in Nalibo catalog. It panics if the embedded
// data is malformed, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := LoadFS(lessonData, "data")
		if err != nil {
			panic(fmt.Sprintf("nalibo: load embedded lessons: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadFS reads every *.json file in dir, validates each against the
// lesson schema and builds a Catalog.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read lesson dir: %w", err)
	}

	var lessons []Lesson
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := validateLesson(data); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		var lesson Lesson
		if err := json.Unmarshal(data, &lesson); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		lessons = append(lessons, lesson)
	}

	if len(lessons) == 0 {
		return nil, fmt.Errorf("no lessons found in %s", dir)
	}
	return NewCatalog(lessons)
}
