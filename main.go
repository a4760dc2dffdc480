package main

import (
	"os"

	"github.com/krzysbaranski/shell-scripts/cmd/cli"
)

func main() {
	if executionError := cli.Execute(); executionError != nil {
		os.Exit(1)
	}
}
