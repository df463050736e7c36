// Command fixture runs the UI automation fixture.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/e2e/cmd/fixture/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
