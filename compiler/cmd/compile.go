package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xiaobogaga/jackc/compiler/internal"
)

func newCompileCmd() *cobra.Command {
	options := internal.DefaultOptions()
	compileCmd := &cobra.Command{
		Use:   "compile [path]",
		Short: "Compile a .jack file or a directory of .jack files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return internal.Compile(args[0], options, newLogger())
		},
	}
	flags := compileCmd.Flags()
	flags.StringVarP(&options.OutDir, "out", "o", "", "output directory, defaults to the directory of each source file")
	flags.BoolVar(&options.EmitTokens, "tokens", false, "write <Name>T.xml token trace files")
	flags.BoolVar(&options.EmitTrace, "trace", false, "write <Name>.xml parse trace files")
	flags.BoolVar(&options.AnnotateTrace, "annotate", false, "annotate parse trace identifiers with their storage kind")
	flags.IntVarP(&options.Jobs, "jobs", "j", options.Jobs, "number of files compiled concurrently")
	return compileCmd
}
