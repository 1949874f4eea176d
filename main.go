// Package main is the entry point for the cleanspring CLI.
package main

import "cleanspring.dev/pkg/cleanspring/cmd"

func main() {
	cmd.Execute()
}
