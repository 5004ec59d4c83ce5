package main

import (
	"os"

	"github.com/trungams/simple-cloud/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
