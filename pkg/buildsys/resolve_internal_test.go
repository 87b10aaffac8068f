package buildsys

import (
	"testing"
)

func TestResolutionTableOrder(t *testing.T) {
	backend := "flit_core.buildapi"

	cases := []struct {
		note   string
		input  ExtractResult
		expRow string
	}{
		{note: "absent", input: Absent(), expRow: "no build-system table"},
		{note: "backend", input: Declared(BuildDeclaration{Requires: []string{}, Backend: &backend}), expRow: "declared backend"},
		{note: "no backend", input: Declared(BuildDeclaration{Requires: []string{"a"}}), expRow: "declared requires, default backend"},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			for _, r := range resolution {
				if r.match(tc.input) {
					if r.name != tc.expRow {
						t.Fatalf("expected row %q, got %q", tc.expRow, r.name)
					}
					return
				}
			}
			t.Fatal("no row matched")
		})
	}
}
