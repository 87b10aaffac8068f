// gen-config-schema writes the JSON schema of the pybuild tool configuration,
// reflected from internal/config.Root, to the given file.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pyproject-tools/pybuild/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s path/to/schema.json\n", os.Args[0])
		os.Exit(2)
	}

	bs, err := config.ReflectSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reflect schema: %v\n", err)
		os.Exit(1)
	}

	if old, err := os.ReadFile(os.Args[1]); err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(bs)) {
		return
	}

	if err := os.WriteFile(os.Args[1], append(bs, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write schema: %v\n", err)
		os.Exit(1)
	}
}
