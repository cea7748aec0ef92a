package main

import (
	"os"

	"github.com/KAFKA2306/expense2/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
