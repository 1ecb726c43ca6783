// Package edits implements the edit-application engine: the ordered-edit
// interpreter, the per-edit geometry and compositing handlers, and the
// output size-limit enforcement.
//
// An ImageRequest carries the original image bytes plus a named, ordered
// list of edits. Edits are applied strictly in list order against a single
// working image, because each edit may depend on the cumulative effect of
// the ones before it (especially resize).
package edits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ImageRequest is one transformation request. It is immutable once
// constructed and owned by the caller.
type ImageRequest struct {
	// OriginalImage is the raw source image bytes.
	OriginalImage []byte `json:"-"`

	// Edits is the ordered edit list. Insertion order is application
	// order.
	Edits EditList `json:"edits"`

	// OutputFormat optionally names the codec to re-encode the result
	// with. Empty keeps the source format.
	OutputFormat string `json:"outputFormat"`
}

// Edit is one named transformation step with its raw parameters.
type Edit struct {
	Name  string
	Value json.RawMessage
}

// EditList preserves the JSON object's key order, which plain Go maps
// discard. The order is significant: a resize before an overlay changes
// the overlay's reference dimensions.
type EditList []Edit

// UnmarshalJSON decodes a JSON object into edits in key order. Null and
// absent decode to an empty list.
func (l *EditList) UnmarshalJSON(data []byte) error {
	*l = nil
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding edits: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("edits must be a JSON object, got %s", trimmed)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding edit name: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("edit name is not a string: %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding parameters for edit %q: %w", name, err)
		}
		*l = append(*l, Edit{Name: name, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding edits: %w", err)
	}
	return nil
}

// MarshalJSON re-serializes the list as an object in list order.
func (l EditList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(e.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(e.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Find returns the parameters of the first edit with the given name.
func (l EditList) Find(name string) (json.RawMessage, bool) {
	for _, e := range l {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether an edit with the given name is present.
func (l EditList) Has(name string) bool {
	_, ok := l.Find(name)
	return ok
}

// isNull reports whether a raw edit value is absent or JSON null.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

// rawScalarString renders a raw JSON scalar in its literal string form:
// the content for strings, the literal text for numbers. The parameter
// validators all operate on this form.
func rawScalarString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
