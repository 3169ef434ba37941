// Package xlog is a thin wrapper around fmt.Fprintf giving the pipeline's
// plain, prefix-free progress lines a single place to route through (and
// tests a single place to capture). The teacher and the rest of the corpus
// log with bare fmt.Printf; this package exists only so call sites read
// naturally while still being redirectable in tests.
package xlog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stdout
)

// SetOutput redirects where Printf writes, for use by tests that want to
// capture progress output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Printf writes a formatted progress line followed by a newline.
func Printf(format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, format+"\n", args...)
}
