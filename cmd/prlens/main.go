package main

import (
	"os"

	"github.com/prlens/prlens/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
