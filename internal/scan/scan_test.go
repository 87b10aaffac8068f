package scan_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pyproject-tools/pybuild/internal/config"
	"github.com/pyproject-tools/pybuild/internal/policy"
	"github.com/pyproject-tools/pybuild/internal/scan"
	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func tree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"pyproject.toml": `
[build-system]
requires = ["flit_core>=3.2"]
build-backend = "flit_core.buildapi"
`,
		"svc/legacy/pyproject.toml": `
[project]
name = "legacy"
`,
		"svc/missing/pyproject.toml": `
[build-system]
build-backend = "hatchling.build"
`,
		"svc/broken/pyproject.toml": `[build-system`,
		"svc/intree/pyproject.toml": `
[build-system]
requires = []
build-backend = "backend"
backend-path = ["_build"]
`,
		"svc/intree/_build/backend.py":    "",
		"svc/setuponly/setup.py":          "",
		".venv/lib/pyproject.toml":        "[build-system]\nrequires = []\n",
		"svc/x/.git/hooks/pyproject.toml": "",
	})
	return root
}

func newService(t *testing.T, c config.Scan) *scan.Service {
	t.Helper()
	s, err := scan.New(c)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFind(t *testing.T) {
	root := tree(t)
	s := newService(t, config.Default().Scan)

	projects, err := s.Find(t.Context(), root)
	if err != nil {
		t.Fatal(err)
	}

	var rel []string
	for _, p := range projects {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}

	exp := []string{".", "svc/broken", "svc/intree", "svc/legacy", "svc/missing"}
	if diff := cmp.Diff(exp, rel); diff != "" {
		t.Fatalf("unexpected projects (-want +got):\n%s", diff)
	}
}

func TestFindFile(t *testing.T) {
	root := tree(t)
	s := newService(t, config.Default().Scan)

	projects, err := s.Find(t.Context(), filepath.Join(root, "svc", "legacy", "pyproject.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "svc", "legacy")}, projects); diff != "" {
		t.Fatalf("unexpected projects (-want +got):\n%s", diff)
	}
}

func TestFindMissingRoot(t *testing.T) {
	s := newService(t, config.Default().Scan)
	if _, err := s.Find(t.Context(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun(t *testing.T) {
	root := tree(t)
	t.Chdir(root)

	var progress bytes.Buffer
	s := newService(t, config.Scan{
		Include: config.DefaultInclude,
		Exclude: config.DefaultExclude,
		Workers: 2,
	}).WithProgress(&progress)

	entries, err := s.Run(t.Context(), []string{".", "svc"})
	if err != nil {
		t.Fatal(err)
	}

	type result struct {
		project, backend, kind string
		isDefault              bool
	}
	var got []result
	for _, e := range entries {
		r := result{project: e.Project, kind: e.ErrorKind}
		if e.Descriptor != nil {
			r.backend = e.Descriptor.Backend
			r.isDefault = e.Descriptor.IsDefault
		}
		got = append(got, r)
	}

	exp := []result{
		{project: ".", backend: "flit_core.buildapi"},
		{project: "svc/broken", kind: "error"},
		{project: "svc/intree", backend: "backend"},
		{project: "svc/legacy", backend: buildsys.DefaultBackend, isDefault: true},
		{project: "svc/missing", kind: "missing_requires"},
	}
	if diff := cmp.Diff(exp, got, cmp.AllowUnexported(result{})); diff != "" {
		t.Fatalf("unexpected entries (-want +got):\n%s", diff)
	}

	intree := entries[2].Descriptor
	if len(intree.BackendPath) != 1 || intree.BackendPath[0] != filepath.Join(root, "svc", "intree", "_build") {
		t.Fatalf("unexpected backend path: %v", intree.BackendPath)
	}

	if progress.Len() == 0 {
		t.Fatal("expected progress output")
	}
}

func TestRunCustomGlobs(t *testing.T) {
	root := tree(t)

	s := newService(t, config.Scan{
		Include: []string{"svc/**/pyproject.toml"},
		Exclude: []string{"svc/broken/**", "svc/**/.git/**"},
	})

	entries, err := s.Run(t.Context(), []string{root})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, e := range entries {
		got = append(got, e.Project)
	}
	exp := []string{
		filepath.ToSlash(filepath.Join(root, "svc", "intree")),
		filepath.ToSlash(filepath.Join(root, "svc", "legacy")),
		filepath.ToSlash(filepath.Join(root, "svc", "missing")),
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("unexpected projects (-want +got):\n%s", diff)
	}
}

func TestRunEmpty(t *testing.T) {
	s := newService(t, config.Default().Scan)
	entries, err := s.Run(t.Context(), []string{t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestBadPattern(t *testing.T) {
	if _, err := scan.New(config.Scan{Include: []string{"[a-"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunPolicy(t *testing.T) {
	root := tree(t)
	t.Chdir(root)

	p, err := policy.New(t.Context(), "policy.rego", `package pybuild

deny contains msg if {
	input.descriptor["is-default"]
	msg := sprintf("%s: add a build-system table", [input.project])
}
`, "")
	if err != nil {
		t.Fatal(err)
	}

	s := newService(t, config.Default().Scan).WithPolicy(p)
	entries, err := s.Run(t.Context(), []string{"."})
	if err != nil {
		t.Fatal(err)
	}

	violations := map[string][]string{}
	for _, e := range entries {
		if len(e.Violations) > 0 {
			violations[e.Project] = e.Violations
		}
	}

	exp := map[string][]string{"svc/legacy": {"svc/legacy: add a build-system table"}}
	if diff := cmp.Diff(exp, violations); diff != "" {
		t.Fatalf("unexpected violations (-want +got):\n%s", diff)
	}

	desc, vs, err := s.Discover(t.Context(), "svc/legacy")
	if err != nil {
		t.Fatal(err)
	}
	if !desc.IsDefault() || len(vs) != 1 {
		t.Fatalf("unexpected single discovery: %v %v", desc.Data(), vs)
	}
}
