package main

import (
	"os"

	"github.com/arthur-debert/devsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
