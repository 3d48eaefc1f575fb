// Package main provides the viewcast CLI for inspecting tensor views and
// exercising rank casts against real storage.
package main

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

func main() {
	err := newRootCmd().Execute()
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
