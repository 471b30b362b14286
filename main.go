package main

import (
	"os"
	"runtime/debug"

	"github.com/siyuan-infoblox/go-imports-lsp/pkg/cmd"
)

func main() {
	var buildVersion string
	if info, ok := debug.ReadBuildInfo(); ok {
		buildVersion = info.Main.Version
	}
	if err := cmd.Execute(buildVersion); err != nil {
		os.Exit(1)
	}
}
