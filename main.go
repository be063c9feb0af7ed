package main

import (
	"os"

	"github.com/openbeta/climb-harvester/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
