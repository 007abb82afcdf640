package main

import (
	"os"

	"github.com/milops/convoyd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
