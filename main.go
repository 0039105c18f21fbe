package main

import (
	"os"

	"github.com/numisight/numisight/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
