package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiledSchemas holds one compiled validator per *Schema.
var compiledSchemas sync.Map // map[*Schema]*jsonschema.Schema

// finish applies the checks shared by every provider to a response built
// for req. Structured output cut off at the token cap is reported as
// ErrMaxTokensExceeded since the JSON cannot be complete.
func finish(req Request, resp *Response) (*Response, error) {
	if req.Schema == nil {
		return resp, nil
	}
	if resp.StopReason == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

// validateResponse checks raw against schema. A nil schema accepts
// anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := compiled.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("does not match %s: %w", schema.Name, err)}
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if c, ok := compiledSchemas.Load(schema); ok {
		return c.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not typed Go maps.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", schema.Name, err)
	}

	url := "mem://llm/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", schema.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}

	actual, _ := compiledSchemas.LoadOrStore(schema, compiled)
	return actual.(*jsonschema.Schema), nil
}
