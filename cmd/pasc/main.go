// Command pasc compiles Pascal-standard source files into Target VM
// assembly listings.
package main

import (
	"fmt"
	"os"

	"github.com/oaraujo/pasc/cmd/pasc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
