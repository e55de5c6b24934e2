// Command docstage renders, serves, and publishes Markdown documentation.
package main

import (
	"fmt"
	"os"

	"github.com/rwdocs/docstage/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
