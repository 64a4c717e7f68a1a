// Package main is the entry point for the convstudy CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/convstudy/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
