// Command boardgameborrow is the entry point for the metadata cache CLI.
package main

import (
	"github.com/ken-allen-3/boardgameborrow/internal/cli"
)

func main() {
	cli.Execute()
}
