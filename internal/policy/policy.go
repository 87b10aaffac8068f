// Package policy checks discovered build descriptors against Rego policies,
// for instance to reject untrusted backends or in-tree backends.
package policy

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/pyproject-tools/pybuild/pkg/buildsys"
)

// DefaultQuery collects violation messages from the pybuild package.
const DefaultQuery = "data.pybuild.deny"

type Policy struct {
	query rego.PreparedEvalQuery
}

// New compiles module and prepares query against it. The query must evaluate
// to a collection of strings; each string is reported as a violation.
func New(ctx context.Context, filename string, module string, query string) (*Policy, error) {
	if query == "" {
		query = DefaultQuery
	}

	pq, err := rego.New(
		rego.Query(query),
		rego.Module(filename, module),
		rego.Strict(true),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy %s: %w", filename, err)
	}

	return &Policy{query: pq}, nil
}

func Load(ctx context.Context, filename string, query string) (*Policy, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", filename, err)
	}
	return New(ctx, filename, string(bs), query)
}

// Evaluate returns the sorted violation messages for the descriptor of
// project. The policy input is
//
//	{"project": "<path>", "descriptor": {"requires": [...], "build-backend": "...", "backend-path": [...], "is-default": false}}
func (p *Policy) Evaluate(ctx context.Context, project string, desc *buildsys.BuildDescriptor) ([]string, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(Input(project, desc)))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	var violations []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			msgs, err := messages(expr.Value)
			if err != nil {
				return nil, err
			}
			violations = append(violations, msgs...)
		}
	}

	slices.Sort(violations)
	return slices.Compact(violations), nil
}

// Input builds the policy input document for a descriptor.
func Input(project string, desc *buildsys.BuildDescriptor) map[string]any {
	data := desc.Data()
	return map[string]any{
		"project": project,
		"descriptor": map[string]any{
			"requires":      toAny(data.Requires),
			"build-backend": data.Backend,
			"backend-path":  toAny(data.BackendPath),
			"is-default":    data.IsDefault,
		},
	}
}

func messages(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("policy result must contain strings, got %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	case bool:
		if v {
			return []string{"denied by policy"}, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected policy result type %T", v)
	}
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i := range s {
		out[i] = s[i]
	}
	return out
}
