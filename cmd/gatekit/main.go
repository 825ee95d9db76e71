package main

import (
	"os"

	"github.com/gatherkit/gatekit/cmd/gatekit/commands"
)

// Version is the current version of gatekit
// This must match the git tag when creating releases
const Version = "v0.3.0"

func main() {
	commands.SetVersion(Version)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
