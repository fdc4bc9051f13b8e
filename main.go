package main

import (
	"os"

	"github.com/mantamatcher/catalogcore/cmd"
	"github.com/mantamatcher/catalogcore/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=...".
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(cmd.Execute(buildinfo.NewContext(version, buildDate)))
}
