// internal/common/validation/schema.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema together with its source, which is
// shown to the generator in prompts.
type Schema struct {
	Source   string
	compiled *gojsonschema.Schema
}

// CompileSchema parses and compiles a JSON schema document.
func CompileSchema(source string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{Source: source, compiled: compiled}, nil
}

// Outcome is the result of validating a generated document: either OK with
// the decoded Data, or not OK with a readable Error.
type Outcome struct {
	OK    bool                   `json:"ok"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func failed(format string, args ...interface{}) Outcome {
	return Outcome{OK: false, Error: fmt.Sprintf(format, args...)}
}

// ValidateDocument decodes raw model output and checks it against schema.
// One surrounding markdown code fence is tolerated. The document must be a
// JSON object.
func ValidateDocument(raw string, schema *Schema) Outcome {
	text := StripCodeFence(raw)
	if text == "" {
		return failed("empty response")
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return failed("invalid JSON: %v", err)
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return failed("expected a JSON object, got %s", jsonKind(decoded))
	}

	return ValidateObject(obj, schema)
}

// ValidateObject checks an already decoded object.
func ValidateObject(obj map[string]interface{}, schema *Schema) Outcome {
	result, err := schema.compiled.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return failed("schema validation error: %v", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return Outcome{OK: false, Error: strings.Join(msgs, "; ")}
	}
	return Outcome{OK: true, Data: obj}
}

// StripCodeFence trims whitespace and removes a single ```/```json fence
// wrapping the whole text.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if tag := strings.TrimSpace(inner[:nl]); !strings.ContainsAny(tag, "{[") {
			inner = inner[nl+1:]
		}
	} else if body := strings.TrimLeftFunc(inner, isInfoStringRune); body != inner && (strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[")) {
		// one-line fence such as ```json{"a":1}```
		inner = body
	}
	return strings.TrimSpace(inner)
}

func isInfoStringRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == ' '
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max]), true
	}
	return string(runes[:max-3]) + "...", true
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
