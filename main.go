package main

import (
	"os"

	"github.com/glexport/glexport/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
