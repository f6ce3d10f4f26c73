// Command cardhist edits a card library with undo/redo history, saving the
// library to the configured storage after every change.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-undo/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
