package main

import (
	"os"

	"github.com/swiftcourse/swiftcourse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
