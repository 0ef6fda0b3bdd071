package main

import (
	"os"

	"github.com/atelierluma/videowall/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
