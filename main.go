package main

import (
	"os"

	"github.com/nalibo/nalibopath/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
