// Command attendance-summary reads an attendance payload as JSON and
// writes a summary with high-hour anomalies as JSON.
//
//	echo '{"rows":[{"username":"a","hours":13}]}' | attendance-summary
//
// On failure it prints one "python-summary-error: <message>" line to stderr
// and exits with status 1. Existing report consumers match on that prefix.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
