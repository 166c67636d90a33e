package main

import (
	"os"

	"github.com/mfragab5890/ev-stats/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
