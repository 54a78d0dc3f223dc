// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own exit code
// and have already been reported to the user.
type exitCoder interface {
	ExitCode() int
}

// ExitOnError returns if err is nil. Otherwise it reports err and exits:
// with the error's own code if it has one, else with "error: err" on
// stderr and code 1. Use it as main's only statement: ExitOnError(run()).
func ExitOnError(err error) {
	if err == nil {
		return
	}
	os.Exit(report(os.Stderr, err))
}

// report writes err to w unless it carries its own exit code, and
// returns the code to exit with.
func report(w io.Writer, err error) int {
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
