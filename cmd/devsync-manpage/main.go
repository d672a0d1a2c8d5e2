package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/devsync/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()

	err := doc.GenMan(rootCmd, cli.ManHeader(), os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
