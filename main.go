package main

import (
	"os"

	"github.com/jonesrussell/north-cloud/restock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
