package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"edfanon/internal/config"
)

// errFilesFailed marks a run that completed but left failed files; the
// process exits nonzero so scripted batches notice.
var errFilesFailed = errors.New("one or more files failed")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)

		var validationErr *config.ValidationError
		if errors.As(err, &validationErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
