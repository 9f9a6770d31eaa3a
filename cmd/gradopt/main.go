// Package main provides the gradopt CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("gradopt %s\n", version)
		return
	}

	fmt.Println("gradopt - Robust Sparse Regression via Graduated Optimisation")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See examples/robustfit for a runnable demo of the library API.")
}
