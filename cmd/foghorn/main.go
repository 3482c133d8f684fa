// Package main is the entry point for the foghorn binary.
package main

import "github.com/foghornhq/foghorn/cmd"

func main() {
	cmd.Execute()
}
