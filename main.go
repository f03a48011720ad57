package main

import (
	"os"

	"github.com/conneroisu/spry/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
