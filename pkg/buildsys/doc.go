// Package buildsys determines how a Python project must be built from its parsed
// project configuration.
//
// Discovery is a two step pipeline. Extract isolates and type-checks the
// build-system table of a parsed configuration, and Resolve applies the default
// rules to produce a BuildDescriptor: the packages to install, the backend entry
// point to invoke and, for in-tree backends, the directories to put on the import
// path.
//
// # Basic Usage
//
//	var doc map[string]any // parsed pyproject.toml
//
//	desc, err := buildsys.Discover(doc, "/path/to/project")
//	if err != nil {
//	    var mal *buildsys.MalformedError
//	    if errors.As(err, &mal) {
//	        log.Fatalf("bad %s: %s", mal.Field, mal.Reason)
//	    }
//	    log.Fatal(err)
//	}
//	fmt.Println(desc.Requires(), desc.Backend(), desc.BackendPath())
//
// # Defaults
//
// A configuration without a build-system table gets DefaultRequires and
// DefaultBackend, and the descriptor reports IsDefault. A table that declares
// requires but no build-backend keeps its requires and gets DefaultBackend.
// A table without requires is an error.
//
// # Errors
//
// Each failure is one of MalformedError, MissingRequiresError,
// InvalidBackendPathError or BackendPathNotFoundError. They also match the
// sentinel values ErrMalformed, ErrMissingRequires, ErrInvalidBackendPath and
// ErrBackendPathNotFound with errors.Is. Only the first violation is reported.
//
// # Thread Safety
//
// Extract, Resolve and Discover hold no state and may be called concurrently.
// A BuildDescriptor is never modified after construction.
package buildsys
