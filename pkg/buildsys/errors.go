package buildsys

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed           = errors.New("malformed build-system")
	ErrMissingRequires     = errors.New("missing build-system requires")
	ErrInvalidBackendPath  = errors.New("invalid backend path")
	ErrBackendPathNotFound = errors.New("backend path not found")
)

// Error kinds as reported by Kind.
const (
	KindMalformed           = "malformed"
	KindMissingRequires     = "missing_requires"
	KindInvalidBackendPath  = "invalid_backend_path"
	KindBackendPathNotFound = "backend_path_not_found"
)

// MalformedError reports a declared field with the wrong shape or type.
type MalformedError struct {
	Field  string
	Reason string
	Value  any
}

func (err *MalformedError) Error() string {
	if err.Value != nil {
		return fmt.Sprintf("%s: %s (got %T %v)", err.Field, err.Reason, err.Value, err.Value)
	}
	return fmt.Sprintf("%s: %s", err.Field, err.Reason)
}

func (*MalformedError) Is(target error) bool { return target == ErrMalformed }

func (*MalformedError) Kind() string { return KindMalformed }

// MissingRequiresError reports a build-system table without requires.
type MissingRequiresError struct{}

func (*MissingRequiresError) Error() string {
	return fmt.Sprintf("%s.%s: required key is missing", KeyBuildSystem, KeyRequires)
}

func (*MissingRequiresError) Is(target error) bool { return target == ErrMissingRequires }

func (*MissingRequiresError) Kind() string { return KindMissingRequires }

// InvalidBackendPathError reports a backend-path entry that leaves the project
// root once normalized.
type InvalidBackendPathError struct {
	Path     string // as declared
	Resolved string
	Root     string
}

func (err *InvalidBackendPathError) Error() string {
	return fmt.Sprintf("%s.%s: %q resolves to %s, outside of project root %s",
		KeyBuildSystem, KeyBackendPath, err.Path, err.Resolved, err.Root)
}

func (*InvalidBackendPathError) Is(target error) bool { return target == ErrInvalidBackendPath }

func (*InvalidBackendPathError) Kind() string { return KindInvalidBackendPath }

// BackendPathNotFoundError reports a backend-path entry that is not an existing
// directory.
type BackendPathNotFoundError struct {
	Path  string // absolute
	Cause error
}

func (err *BackendPathNotFoundError) Error() string {
	if err.Cause != nil {
		return fmt.Sprintf("%s.%s: %s is not a directory: %v", KeyBuildSystem, KeyBackendPath, err.Path, err.Cause)
	}
	return fmt.Sprintf("%s.%s: %s is not a directory", KeyBuildSystem, KeyBackendPath, err.Path)
}

func (err *BackendPathNotFoundError) Unwrap() error { return err.Cause }

func (*BackendPathNotFoundError) Is(target error) bool { return target == ErrBackendPathNotFound }

func (*BackendPathNotFoundError) Kind() string { return KindBackendPathNotFound }

// Kind returns the kind of a discovery error, or "" if err is nil or not a
// discovery error.
func Kind(err error) string {
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}
