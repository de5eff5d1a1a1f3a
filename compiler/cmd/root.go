package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jackc",
	Short: "jackc compiles jack classes into stack machine vm code",
	Long: `jackc is a single pass compiler for the jack language.

Commands:
  compile   Compile a .jack file, or every .jack file of a directory, into .vm files
  tokenize  Print the token trace of a .jack file
`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newCompileCmd(), newTokenizeCmd())
}
