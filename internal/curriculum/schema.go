package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var wordDef = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"nalibo":              map[string]any{"type": "string", "minLength": 1},
		"english":             map[string]any{"type": "string"},
		"ipa":                 map[string]any{"type": "string"},
		"category":            map[string]any{"type": "string"},
		"pronunciation_guide": map[string]any{"type": "string"},
	},
	"required": []any{"nalibo", "english"},
}

// lessonSchema describes one lesson file.
var lessonSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":                map[string]any{"type": "string", "minLength": 1},
		"order":             map[string]any{"type": "integer", "minimum": 1},
		"title":             map[string]any{"type": "string", "minLength": 1},
		"level":             map[string]any{"enum": []any{"Novice Low", "Novice Mid", "Novice High", "Intermediate Low"}},
		"icon":              map[string]any{"type": "string"},
		"can_do_statements": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"story_segment":     map[string]any{"type": "string"},
		"grammar_focus":     map[string]any{"type": "string"},
		"linguistic_note": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []any{"title", "description"},
		},
		"comparison_note": map[string]any{"type": "string"},
		"vocab":           map[string]any{"type": "array", "items": wordDef},
		"exercises": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{"enum": []any{
						"SENTENCE_BUILDER", "MULTIPLE_CHOICE", "DRAG_AND_DROP", "MATCHING",
						"SPEAKING", "TRANSLATION", "INTERPERSONAL_CHAT",
					}},
					"prompt":         map[string]any{"type": "string"},
					"correct_answer": map[string]any{"type": "string"},
					"grammar_focus":  map[string]any{"type": "string"},
					"options":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"words":          map[string]any{"type": "array", "items": wordDef},
					"pairs": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"left":  map[string]any{"type": "string", "minLength": 1},
								"right": map[string]any{"type": "string", "minLength": 1},
							},
							"required": []any{"left", "right"},
						},
					},
				},
				"required": []any{"id", "type", "prompt", "correct_answer"},
			},
		},
	},
	"required": []any{"id", "order", "title", "level", "exercises"},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func validateLesson(data []byte) error {
	compileOnce.Do(func() {
		raw, err := json.Marshal(lessonSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://nalibo-lesson.json", def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://nalibo-lesson.json")
	})
	if compileErr != nil {
		return fmt.Errorf("compile lesson schema: %w", compileErr)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
