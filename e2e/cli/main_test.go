//go:build e2e

package cli

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestScript(t *testing.T) {
	pybuild := cmp.Or(os.Getenv("PYBUILD"), "pybuild")

	testscript.Run(t, testscript.Params{
		Dir: ".",
		Setup: func(e *testscript.Env) error {
			e.Vars = append(e.Vars, "PYBUILD="+pybuild)
			for _, kv := range os.Environ() {
				if strings.HasPrefix(kv, "E2E_") {
					e.Vars = append(e.Vars, kv)
				}
			}
			return nil
		},
		Condition: func(cond string) (bool, error) {
			args := strings.Split(cond, ":")
			name := args[0]
			switch name {
			case "env":
				if len(args) < 2 {
					return false, fmt.Errorf("syntax: [env:SOME_VAR]")
				}
				return os.Getenv(args[1]) != "", nil
			default:
				return false, fmt.Errorf("unknown condition %s", name)
			}
		},
		Cmds: map[string]func(*testscript.TestScript, bool, []string){
			"exitcode": exitCodeCmd,
		},
		// NB: To quickly update expectations in txtar files, try re-running the tests with
		// E2E_UPDATE=y, for example:
		//   E2E_UPDATE=y go test -tags e2e ./e2e/cli -run TestScript/discover -v -count=1
		UpdateScripts: os.Getenv("E2E_UPDATE") != "",
	})
}

// exitCodeCmd runs a command and checks its exit code:
//
//	exitcode 3 $PYBUILD discover
func exitCodeCmd(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! exitcode")
	}
	if len(args) < 2 {
		ts.Fatalf("usage: exitcode code command [args...]")
	}

	err := ts.Exec(args[1], args[2:]...)
	got := "0"
	if err != nil {
		// ts.Exec reports "exit status N" for processes that ran.
		msg := err.Error()
		i := strings.LastIndex(msg, "exit status ")
		if i < 0 {
			ts.Fatalf("command failed to run: %v", err)
		}
		got = strings.TrimSpace(msg[i+len("exit status "):])
	}

	if got != args[0] {
		ts.Fatalf("expected exit code %s, got %s", args[0], got)
	}
}
