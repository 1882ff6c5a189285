package main

import (
	"os"

	"github.com/wonho/sentbt/cmd/sentbt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
