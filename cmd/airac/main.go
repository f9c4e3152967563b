// Command airac prints the current AIRAC cycle for automation pipelines.
//
// Usage:
//
//	airac                       # IDENTIFIER=..., START=..., END=...
//	airac --date 2024-05-23     # cycle for a specific date
//	airac show 2401
//	airac list -n 12
//	airac serve
package main

import (
	"context"
	"os"
	"time"

	"github.com/zapponejosh/airac-cycle/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, os.Getenv, time.Now))
}
