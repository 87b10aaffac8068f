package buildsys

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extract isolates and validates the build-system table of config, the parsed
// project configuration. It reports Absent if there is no build-system table.
//
// projectRoot is only used to check that backend-path entries stay inside the
// project; the check is done on cleaned paths, the filesystem is not consulted.
func Extract(config map[string]any, projectRoot string) (ExtractResult, error) {
	raw, ok := config[KeyBuildSystem]
	if !ok {
		return Absent(), nil
	}

	table, ok := raw.(map[string]any)
	if !ok {
		return ExtractResult{}, &MalformedError{Field: KeyBuildSystem, Reason: "must be a table (map[string]any)", Value: raw}
	}

	var decl BuildDeclaration

	requires, err := extractRequires(table)
	if err != nil {
		return ExtractResult{}, err
	}
	decl.Requires = requires

	backend, err := extractBackend(table)
	if err != nil {
		return ExtractResult{}, err
	}
	decl.Backend = backend

	paths, err := extractBackendPath(table, backend != nil, projectRoot)
	if err != nil {
		return ExtractResult{}, err
	}
	decl.BackendPath = paths

	return Declared(decl), nil
}

func extractRequires(table map[string]any) ([]string, error) {
	raw, ok := table[KeyRequires]
	if !ok {
		return nil, &MissingRequiresError{}
	}
	return stringList(field(KeyRequires), raw, true)
}

func extractBackend(table map[string]any) (*string, error) {
	raw, ok := table[KeyBackend]
	if !ok {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &MalformedError{Field: field(KeyBackend), Reason: "must be a string", Value: raw}
	}
	if strings.TrimSpace(s) == "" {
		return nil, &MalformedError{Field: field(KeyBackend), Reason: "must not be empty"}
	}
	return &s, nil
}

func extractBackendPath(table map[string]any, hasBackend bool, projectRoot string) ([]string, error) {
	raw, ok := table[KeyBackendPath]
	if !ok {
		return nil, nil
	}
	if !hasBackend {
		return nil, &MalformedError{Field: field(KeyBackendPath), Reason: fmt.Sprintf("requires %s to be declared", KeyBackend)}
	}

	paths, err := stringList(field(KeyBackendPath), raw, false)
	if err != nil {
		return nil, err
	}

	root := filepath.Clean(projectRoot)
	for _, p := range paths {
		base := root
		// An absolute entry can only be compared with an absolute root.
		if filepath.IsAbs(p) && !filepath.IsAbs(root) {
			if base, err = filepath.Abs(root); err != nil {
				return nil, err
			}
		}
		if _, err := containedPath(base, p); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// stringList checks that raw is a sequence of strings. The result is never nil.
func stringList(name string, raw any, nonEmpty bool) ([]string, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	default:
		return nil, &MalformedError{Field: name, Reason: "must be a list of strings", Value: raw}
	}

	result := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &MalformedError{Field: fmt.Sprintf("%s[%d]", name, i), Reason: "must be a string", Value: item}
		}
		if nonEmpty && strings.TrimSpace(s) == "" {
			return nil, &MalformedError{Field: fmt.Sprintf("%s[%d]", name, i), Reason: "must not be empty"}
		}
		result = append(result, s)
	}
	return result, nil
}

// containedPath joins p to root and returns the cleaned result, or an
// InvalidBackendPathError if it is not root or below it. Absolute entries are
// checked as they are.
func containedPath(root, p string) (string, error) {
	resolved := p
	if !filepath.IsAbs(p) {
		resolved = filepath.Join(root, p)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &InvalidBackendPathError{Path: p, Resolved: resolved, Root: root}
	}
	return resolved, nil
}

func field(key string) string {
	return KeyBuildSystem + "." + key
}
