// Command b25 descrambles ARIB STD-B25 transport streams through a single
// decode session: read a file, stdin, or an SRT source in chunks, decode
// each, and write the clear stream to a file or stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
