package main

import (
	"os"

	"github.com/marinelab/propfit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
