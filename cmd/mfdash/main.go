package main

import (
	"fmt"
	"os"

	"mfdash/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewApp(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
