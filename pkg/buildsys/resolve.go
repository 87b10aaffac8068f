package buildsys

import (
	"os"
	"path/filepath"
)

// rule is one row of the resolution table. The first rule whose match returns
// true produces the descriptor.
type rule struct {
	name  string
	match func(r ExtractResult) bool
	apply func(decl BuildDeclaration, projectRoot string) (*BuildDescriptor, error)
}

var resolution = []rule{
	{
		name:  "no build-system table",
		match: ExtractResult.Absent,
		apply: func(BuildDeclaration, string) (*BuildDescriptor, error) {
			return &BuildDescriptor{
				requires:    DefaultRequires(),
				backend:     DefaultBackend,
				backendPath: []string{},
				isDefault:   true,
			}, nil
		},
	},
	{
		name: "declared backend",
		match: func(r ExtractResult) bool {
			decl, _ := r.Declaration()
			return decl.Backend != nil
		},
		apply: func(decl BuildDeclaration, projectRoot string) (*BuildDescriptor, error) {
			paths, err := resolveBackendPath(decl.BackendPath, projectRoot)
			if err != nil {
				return nil, err
			}
			return &BuildDescriptor{
				requires:    nonNil(decl.Requires),
				backend:     *decl.Backend,
				backendPath: paths,
			}, nil
		},
	},
	{
		name: "declared requires, default backend",
		match: func(r ExtractResult) bool {
			decl, _ := r.Declaration()
			return decl.Backend == nil
		},
		apply: func(decl BuildDeclaration, _ string) (*BuildDescriptor, error) {
			if len(decl.BackendPath) > 0 {
				return nil, &MalformedError{Field: field(KeyBackendPath), Reason: "requires " + KeyBackend + " to be declared"}
			}
			return &BuildDescriptor{
				requires:    nonNil(decl.Requires),
				backend:     DefaultBackend,
				backendPath: []string{},
			}, nil
		},
	},
}

// Resolve applies the default rules to the result of Extract. Declared backend
// paths are checked to be existing directories, in declared order, before the
// descriptor is built; this is the only filesystem access of discovery.
func Resolve(extracted ExtractResult, projectRoot string) (*BuildDescriptor, error) {
	decl, _ := extracted.Declaration()
	for _, r := range resolution {
		if r.match(extracted) {
			return r.apply(decl, projectRoot)
		}
	}
	panic("unreachable: no resolution rule matched")
}

// Discover runs Extract and Resolve.
func Discover(config map[string]any, projectRoot string) (*BuildDescriptor, error) {
	extracted, err := Extract(config, projectRoot)
	if err != nil {
		return nil, err
	}
	return Resolve(extracted, projectRoot)
}

func resolveBackendPath(paths []string, projectRoot string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	if len(paths) == 0 {
		return resolved, nil
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, &BackendPathNotFoundError{Path: projectRoot, Cause: err}
	}

	for _, p := range paths {
		abs, err := containedPath(root, p)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return nil, &BackendPathNotFoundError{Path: abs, Cause: err}
		}
		if !fi.IsDir() {
			return nil, &BackendPathNotFoundError{Path: abs}
		}
		resolved = append(resolved, abs)
	}
	return resolved, nil
}
