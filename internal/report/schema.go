package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/akedrou/textdiff"
	"github.com/santhosh-tekuri/jsonschema/v6"
	schemareflector "github.com/swaggest/jsonschema-go"
)

// Schema returns the JSON schema of a JSON report.
func Schema() ([]byte, error) {
	reflector := schemareflector.Reflector{}

	s, err := reflector.Reflect([]Entry{})
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(s, "", "  ")
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	bs, err := Schema()
	if err != nil {
		return nil, err
	}
	js, err := jsonschema.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("report.json", js); err != nil {
		return nil, err
	}
	return compiler.Compile("report.json")
})

// Load reads a JSON report, as written by Write with FormatJSON, and validates
// it against Schema. Entries are returned sorted by project.
func Load(r io.Reader) ([]Entry, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile report schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid report: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(bs, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	Sort(entries)
	return entries, nil
}

// Diff returns a unified diff between the JSON forms of two reports, or "" if
// they are equal. Both reports are compared in project order.
func Diff(old, new []Entry) (string, error) {
	a, err := canonical(old)
	if err != nil {
		return "", err
	}
	b, err := canonical(new)
	if err != nil {
		return "", err
	}
	return textdiff.Unified("report", "current", a, b), nil
}

func canonical(entries []Entry) (string, error) {
	sorted := append([]Entry{}, entries...)
	Sort(sorted)
	bs, err := marshalJSON(sorted)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
