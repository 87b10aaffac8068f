package buildsys

import (
	"encoding/json"
	"slices"
	"strings"
)

// BuildDeclaration is the validated build-system table of a project.
type BuildDeclaration struct {
	Requires    []string
	Backend     *string  // nil if build-backend was not declared
	BackendPath []string // relative to the project root, nil if not declared
}

// Equal reports whether both declarations have the same fields. A declared
// empty backend-path differs from an undeclared one.
func (d *BuildDeclaration) Equal(other *BuildDeclaration) bool {
	if d == nil || other == nil {
		return d == other
	}
	return slices.Equal(d.Requires, other.Requires) &&
		ptrEqual(d.Backend, other.Backend) &&
		(d.BackendPath == nil) == (other.BackendPath == nil) &&
		slices.Equal(d.BackendPath, other.BackendPath)
}

// ExtractResult is the outcome of a successful Extract: either no build-system
// table at all, or a validated declaration.
type ExtractResult struct {
	decl *BuildDeclaration
}

// Absent returns an ExtractResult for a configuration without a build-system
// table.
func Absent() ExtractResult {
	return ExtractResult{}
}

// Declared returns an ExtractResult holding decl. The declaration is not
// validated again.
func Declared(decl BuildDeclaration) ExtractResult {
	return ExtractResult{decl: &decl}
}

// Absent reports whether the configuration had no build-system table.
func (r ExtractResult) Absent() bool {
	return r.decl == nil
}

// Declaration returns the validated declaration, if there is one.
func (r ExtractResult) Declaration() (BuildDeclaration, bool) {
	if r.decl == nil {
		return BuildDeclaration{}, false
	}
	return *r.decl, true
}

// BuildDescriptor describes how to build a project. It is never modified after
// Resolve returns it; accessors return copies.
type BuildDescriptor struct {
	requires    []string
	backend     string
	backendPath []string
	isDefault   bool
}

// Requires returns the packages to install before invoking the backend, in
// install order.
func (d *BuildDescriptor) Requires() []string {
	return slices.Clone(d.requires)
}

// Backend returns the backend entry point, "module" or "module:object".
func (d *BuildDescriptor) Backend() string {
	return d.backend
}

// BackendPath returns the absolute directories to prepend to the import path
// when loading an in-tree backend. It is empty for installed backends.
func (d *BuildDescriptor) BackendPath() []string {
	return slices.Clone(d.backendPath)
}

// IsDefault reports whether the project had no build-system table and every
// default was applied. Legacy backends in this mode expect the source tree on
// the import path.
func (d *BuildDescriptor) IsDefault() bool {
	return d.isDefault
}

// BackendModule returns the importable module part of the backend.
func (d *BuildDescriptor) BackendModule() string {
	mod, _, _ := strings.Cut(d.backend, ":")
	return strings.TrimSpace(mod)
}

// BackendObject returns the object path after the colon of the backend, or ""
// if the module itself is the backend.
func (d *BuildDescriptor) BackendObject() string {
	_, obj, _ := strings.Cut(d.backend, ":")
	return strings.TrimSpace(obj)
}

// UsesLegacyBackend reports whether the resolved backend is DefaultBackend.
func (d *BuildDescriptor) UsesLegacyBackend() bool {
	return d.backend == DefaultBackend
}

// Equal reports whether both descriptors describe the same build.
func (d *BuildDescriptor) Equal(other *BuildDescriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return slices.Equal(d.requires, other.requires) &&
		d.backend == other.backend &&
		slices.Equal(d.backendPath, other.backendPath) &&
		d.isDefault == other.isDefault
}

// DescriptorData is the serialized form of a BuildDescriptor.
type DescriptorData struct {
	Requires    []string `json:"requires" yaml:"requires"`
	Backend     string   `json:"build-backend" yaml:"build-backend"`
	BackendPath []string `json:"backend-path" yaml:"backend-path"`
	IsDefault   bool     `json:"is-default" yaml:"is-default"`
}

// Data returns a copy of the descriptor as plain data. Nil slices are returned
// empty so that serialized descriptors are stable.
func (d *BuildDescriptor) Data() DescriptorData {
	return DescriptorData{
		Requires:    nonNil(d.requires),
		Backend:     d.backend,
		BackendPath: nonNil(d.backendPath),
		IsDefault:   d.isDefault,
	}
}

// Descriptor rebuilds a BuildDescriptor from its serialized form, for instance
// from a saved report. The data is trusted as is.
func (data DescriptorData) Descriptor() *BuildDescriptor {
	return &BuildDescriptor{
		requires:    nonNil(data.Requires),
		backend:     data.Backend,
		backendPath: nonNil(data.BackendPath),
		isDefault:   data.IsDefault,
	}
}

func (d *BuildDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data())
}

func (d *BuildDescriptor) UnmarshalJSON(bs []byte) error {
	var data DescriptorData
	if err := json.Unmarshal(bs, &data); err != nil {
		return err
	}
	*d = *data.Descriptor()
	return nil
}

// MarshalYAML encodes the descriptor with the same keys as MarshalJSON.
func (d *BuildDescriptor) MarshalYAML() (any, error) {
	return d.Data(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
