package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"siteshell/internal/cli"
	"siteshell/pkg/domain"
)

// 构建信息，通过 ldflags 注入
var (
	version = "dev"
	commit  = "none"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	dist, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cli.Execute(dist, domain.VersionInfo{Version: version, Commit: commit}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
