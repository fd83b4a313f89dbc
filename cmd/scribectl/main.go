// Command scribectl administers a Scribe installation: schema migrations,
// demo data, groups, accounts and the home page cache.
package main

import (
	"os"

	"scribe/internal/middleware"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		middleware.Logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
