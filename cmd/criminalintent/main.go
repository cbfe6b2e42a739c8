// Command criminalintent records and tracks office crimes in a local store.
package main

import (
	"os"

	"github.com/mesh-intelligence/criminalintent/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
