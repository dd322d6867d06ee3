package main

import (
	"os"

	"github.com/aurguard/aurguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
