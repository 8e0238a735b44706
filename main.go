package main

import (
	"os"

	"github.com/basalt-ssg/basalt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
