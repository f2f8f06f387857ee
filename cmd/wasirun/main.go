package main

import (
	"os"

	"github.com/brandonbloom/wasirun/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
