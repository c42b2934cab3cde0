package main

import (
	"os"

	"github.com/coursehub/coursehub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
