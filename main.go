// Package main is the entry point for the reshape CLI.
package main

import "reshape.dev/pkg/reshape/cmd"

func main() {
	cmd.Execute()
}
