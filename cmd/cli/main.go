package main

import (
	"os"

	"github.com/llmadmin-dev/llmadmin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
