package main

import (
	"os"

	"github.com/charitybridge/nico/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
