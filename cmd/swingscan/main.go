package main

import (
	"os"

	"github.com/swingscan/swingscan/cmd/swingscan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
