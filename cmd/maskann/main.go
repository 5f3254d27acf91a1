// Command maskann is the CLI for mask annotations on image collections.
package main

import (
	"os"

	"github.com/edkvist/maskann/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
