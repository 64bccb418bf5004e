package main

import "github.com/toppk/httpx/apps/cli/cmd"

// Set via -ldflags at build time.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
