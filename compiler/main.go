package main

import (
	"os"

	"github.com/xiaobogaga/jackc/compiler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
