// Package report holds the results of batch discovery and renders, validates
// and compares them.
package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"

	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

// KindError is the error kind of failures that are not discovery errors, for
// instance an unreadable project file.
const KindError = "error"

// Entry is the discovery result of one project. Exactly one of Descriptor and
// Error is set.
type Entry struct {
	Project    string                   `json:"project" yaml:"project" required:"true"`
	Descriptor *buildsys.DescriptorData `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Error      string                   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind  string                   `json:"error_kind,omitempty" yaml:"error_kind,omitempty" enum:"malformed,missing_requires,invalid_backend_path,backend_path_not_found,error"`
	Violations []string                 `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// NewEntry records the outcome of discovering project.
func NewEntry(project string, desc *buildsys.BuildDescriptor, err error) Entry {
	if err != nil {
		return Entry{
			Project:   project,
			Error:     err.Error(),
			ErrorKind: cmp.Or(buildsys.Kind(err), KindError),
		}
	}
	data := desc.Data()
	return Entry{Project: project, Descriptor: &data}
}

// Failed reports whether discovery failed or the policy reported violations.
func (e Entry) Failed() bool {
	return e.Error != "" || len(e.Violations) > 0
}

// Sort orders entries by project path.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Project, b.Project)
	})
}

type Format int

const (
	FormatTable Format = iota
	FormatJSON
	FormatYAML
)

// FormatIDs maps formats to their names, for flags and configuration.
var FormatIDs = map[Format][]string{
	FormatTable: {"table"},
	FormatJSON:  {"json"},
	FormatYAML:  {"yaml"},
}

func (f Format) String() string {
	if ids, ok := FormatIDs[f]; ok {
		return ids[0]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	for f, ids := range FormatIDs {
		if slices.Contains(ids, strings.ToLower(s)) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown output format %q", s)
}

// Write renders entries to w.
func Write(w io.Writer, format Format, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	switch format {
	case FormatJSON:
		bs, err := marshalJSON(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	case FormatYAML:
		bs, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		_, err = w.Write(bs)
		return err
	case FormatTable:
		return writeTable(w, entries)
	default:
		return fmt.Errorf("unsupported output format %v", format)
	}
}

// WriteDescriptor renders a single descriptor, as printed by discover.
func WriteDescriptor(w io.Writer, format Format, desc *buildsys.BuildDescriptor) error {
	data := desc.Data()

	switch format {
	case FormatJSON:
		bs, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", bs)
		return err
	case FormatYAML:
		bs, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Field", "Value")
		rows := [][]string{
			{"build-backend", data.Backend},
			{"requires", strings.Join(data.Requires, "\n")},
			{"backend-path", strings.Join(data.BackendPath, "\n")},
			{"is-default", fmt.Sprint(data.IsDefault)},
		}
		for _, row := range rows {
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported output format %v", format)
	}
}

func writeTable(w io.Writer, entries []Entry) error {
	table := tablewriter.NewWriter(w)
	table.Header("Project", "Backend", "Requires", "Backend Path", "Status")

	for _, e := range entries {
		var backend, requires, backendPath string
		if e.Descriptor != nil {
			backend = e.Descriptor.Backend
			requires = strings.Join(e.Descriptor.Requires, "\n")
			backendPath = strings.Join(e.Descriptor.BackendPath, "\n")
		}
		if err := table.Append([]string{e.Project, backend, requires, backendPath, status(e)}); err != nil {
			return err
		}
	}

	return table.Render()
}

func status(e Entry) string {
	switch {
	case e.Error != "":
		return e.ErrorKind + ": " + e.Error
	case len(e.Violations) > 0:
		return "denied: " + strings.Join(e.Violations, "; ")
	case e.Descriptor != nil && e.Descriptor.IsDefault:
		return "ok (default)"
	default:
		return "ok"
	}
}

func marshalJSON(entries []Entry) ([]byte, error) {
	bs, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(bs, '\n'), nil
}
