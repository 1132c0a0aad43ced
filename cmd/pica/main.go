package main

import (
	"os"

	"github.com/bibkit/pica/cmd/pica/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
