package scpi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/scopeflow/scopeflow/pkgs/errors"
)

// Schema type names, the command library's vocabulary.
const (
	SchemaEnumeration   = "enumeration"
	SchemaNumeric       = "numeric"
	SchemaMnemonicIndex = "mnemonicIndex"
	SchemaText          = "text"
)

// ParamSchema is one parameter description supplied by the external command
// library, aligned by ordinal to the command's parsed components.
type ParamSchema struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
}

// Library is the command schema library: normalized header → ordered
// parameter schemas. The zero value is an empty library; every lookup
// misses and detection degrades to the built-in heuristics.
type Library struct {
	entries map[string][]ParamSchema
}

// Lookup returns the parameter schemas for a command header. The header may
// be written with concrete indices (CH1:SCALE) or placeholders (CH<x>:SCALE);
// both reach the same entry.
func (l *Library) Lookup(header string) ([]ParamSchema, bool) {
	if l == nil || l.entries == nil {
		return nil, false
	}
	s, ok := l.entries[NormalizeHeader(header)]
	return s, ok
}

// Add registers an entry. Empty headers are ignored.
func (l *Library) Add(header string, params []ParamSchema) {
	if header == "" {
		return
	}
	if l.entries == nil {
		l.entries = make(map[string][]ParamSchema)
	}
	l.entries[NormalizeHeader(header)] = params
}

// Len returns the number of registered headers.
func (l *Library) Len() int {
	return len(l.entries)
}

// libraryFile is the on-disk library document.
type libraryFile struct {
	Commands []struct {
		Header string        `json:"header"`
		Params []ParamSchema `json:"params"`
	} `json:"commands"`
}

// ParseLibrary parses a JSON library document. Entries without a header are
// skipped; a parse failure of the document itself is the only error. The
// detector must keep working without a library, so callers treat a load
// failure as an empty library plus a warning, never a crash.
func ParseLibrary(data []byte) (*Library, error) {
	var f libraryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrLibraryParse, "malformed command library", err)
	}
	l := &Library{}
	for _, c := range f.Commands {
		if c.Header == "" {
			continue
		}
		l.Add(c.Header, c.Params)
	}
	return l, nil
}

// LoadLibrary reads a JSON library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrLibraryRead,
			fmt.Sprintf("failed to read command library %q", path), err)
	}
	return ParseLibrary(data)
}

// DetectWithLibrary parses a raw command and detects its editable spans
// using the library entry for its header, falling back to heuristics when
// the library has none.
func DetectWithLibrary(raw string, lib *Library) (ParsedCommand, []EditableParameter) {
	cmd := Parse(raw)
	schema, _ := lib.Lookup(cmd.Header)
	return cmd, Detect(cmd, schema)
}
