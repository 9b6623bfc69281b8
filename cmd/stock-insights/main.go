// Package main - stock-insights service entry point
//
// Usage:
//
//	go run ./cmd/stock-insights            # serve
//	go run ./cmd/stock-insights migrate up
package main

import (
	"os"

	"github.com/trogers1052/stock-insights/cmd/stock-insights/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
