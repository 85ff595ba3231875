package main

import (
	"os"

	"github.com/chromedash/chromedash/pkg/cli"
)

func main() {
	// Execute prints its own error
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
