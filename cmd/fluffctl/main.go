// Command fluffctl is a SQLFluff harness for dbt-style SQL projects.
package main

import (
	"os"

	"github.com/harborview-data/fluffctl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
