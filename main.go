package main

import (
	"context"
	"fmt"
	"os"

	"github.com/soundscape-lab/annotator/cmd"
	"github.com/soundscape-lab/annotator/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	root := cmd.RootCommand(buildinfo.New(version, buildDate))
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
