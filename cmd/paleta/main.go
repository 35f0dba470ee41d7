// Paleta - colour palette extraction and export
//
// Paleta reduces an image to a few representative colours and exports
// colour lists to palette files used by design tools.
package main

import (
	"os"

	"github.com/jmylchreest/paleta/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
