package main

import (
	"os"

	"github.com/pyproject-tools/pybuild/internal/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
