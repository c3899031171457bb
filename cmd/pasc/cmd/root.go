package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pasc",
	Short: "A batch compiler for a Pascal-standard subset",
	Long: `pasc translates Pascal-standard source programs into textual assembly
for a simple stack-oriented virtual machine.

It implements a full lex -> parse -> semantic-analyze -> optimize ->
generate pipeline and can compile one file or a batch of files in a
single invocation.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))
}
