package main

import (
	"os"

	"github.com/benn-herrera/loadergen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
