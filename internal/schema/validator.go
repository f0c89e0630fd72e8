// Package requestschema checks HTTP request bodies against embedded JSON schemas
// before they are decoded into typed requests.
package requestschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed chain_request.schema.json
	chainRequestSchemaJSON string
	//go:embed batch_request.schema.json
	batchRequestSchemaJSON string
)

// ChainRequest is the body of a chain stream request.
type ChainRequest struct {
	Text              string   `json:"text"`
	LanguageChain     []string `json:"languageChain,omitempty"`
	RandomChainLength *int     `json:"randomChainLength,omitempty"`
	StartLanguage     *string  `json:"startLanguage,omitempty"`
	APIKey            string   `json:"apiKey"`
	Provider          *string  `json:"provider,omitempty"`
}

// BatchRequest is the body of a batch string translation request.
type BatchRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"targetLang"`
	DeepLCode  *string  `json:"deeplCode,omitempty"`
	APIKey     string   `json:"apiKey"`
	Provider   *string  `json:"provider,omitempty"`
}

// Error reports schema violations keyed by JSON field path.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

type compiledSchema struct {
	name   string
	source string

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	chainSchema = &compiledSchema{name: "chain_request.schema.json", source: chainRequestSchemaJSON}
	batchSchema = &compiledSchema{name: "batch_request.schema.json", source: batchRequestSchemaJSON}
)

func DecodeChainRequest(payload []byte) (*ChainRequest, error) {
	var req ChainRequest
	if err := decodeValidated(chainSchema, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func DecodeBatchRequest(payload []byte) (*BatchRequest, error) {
	var req BatchRequest
	if err := decodeValidated(batchSchema, payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func decodeValidated(cs *compiledSchema, payload []byte, out any) error {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return &Error{Fields: map[string]string{"body": err.Error()}}
	}

	schema, err := cs.load()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &Error{Fields: flatten(verr)}
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize payload JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return &Error{Fields: map[string]string{"body": err.Error()}}
	}
	return nil
}

func (cs *compiledSchema) load() (*jsonschema.Schema, error) {
	cs.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource(cs.name, strings.NewReader(cs.source)); err != nil {
			cs.err = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(cs.name)
		if err != nil {
			cs.err = fmt.Errorf("compile schema: %w", err)
			return
		}
		cs.schema = schema
	})

	if cs.err != nil {
		return nil, cs.err
	}
	if cs.schema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return cs.schema, nil
}

// flatten maps each leaf violation to its instance path ("/texts/0" -> "texts[0]").
func flatten(root *jsonschema.ValidationError) map[string]string {
	fields := map[string]string{}
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			field := fieldName(v.InstanceLocation)
			if _, exists := fields[field]; !exists {
				fields[field] = v.Message
			}
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(root)
	return fields
}

func fieldName(pointer string) string {
	trimmed := strings.Trim(pointer, "/")
	if trimmed == "" {
		return "body"
	}
	var b strings.Builder
	for i, part := range strings.Split(trimmed, "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
