package main

import (
	"os"

	"github.com/dartmoon/prestashop-build-tools/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
