package main

import (
	"os"

	"github.com/Mirandateresa/malicious-url-detector/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
