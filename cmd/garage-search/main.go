// cmd/garage-search/main.go
//
// garage-search runs one search or diagnosis from the terminal using the
// same configuration as the worker manager.
//
// Usage:
//
//	garage-search regions
//	garage-search search --region Dubai --make Toyota --issue "engine noise"
//	garage-search diagnose --make Toyota --model Camry --year 2015 --issue "squeaking brakes"
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, defaultEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
