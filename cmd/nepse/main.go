package main

import (
	"os"

	"github.com/pawanpaudel93/nepse-analysis/cmd/nepse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
