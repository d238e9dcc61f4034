package main

import (
	"os"

	"github.com/cajero-dev/cajero/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
