package buildsys

import "slices"

// Keys of the build-system table.
const (
	KeyBuildSystem = "build-system"
	KeyRequires    = "requires"
	KeyBackend     = "build-backend"
	KeyBackendPath = "backend-path"
)

// DefaultBackend is the legacy setuptools backend used when a project does not
// declare one.
const DefaultBackend = "setuptools.build_meta:__legacy__"

var defaultRequires = []string{"setuptools>=40.8.0", "wheel"}

// DefaultRequires returns the packages installed for projects without a
// build-system table.
func DefaultRequires() []string {
	return slices.Clone(defaultRequires)
}
