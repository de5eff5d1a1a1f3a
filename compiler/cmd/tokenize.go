package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xiaobogaga/jackc/compiler/internal"
)

func newTokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [file]",
		Short: "Print the token trace of a .jack file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer rd.Close()
			tokenizer := &internal.Tokenizer{}
			tokens, err := tokenizer.Tokenize(rd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), internal.TokensXML(tokens))
			return err
		},
	}
}
