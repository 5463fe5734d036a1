// Package visual presents data points to a human reviewer.
//
// The oracle loop talks to the Visualizer interface only; rendering is an
// external concern. The terminal implementation here prints the slice
// document and blocks on stdin, which is the minimal reviewer surface the
// learn command ships with.
package visual

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/purs3lab/arbitrar/internal/database"
)

// Visualizer shows one data point and collects a single-key answer.
// Ask blocks until the reviewer responds with one of keys or "q" (quit,
// always accepted). Release frees whatever the implementation acquired;
// it must be safe to call more than once.
type Visualizer interface {
	Ask(dp *database.DataPoint, prompt string, keys []string) (string, error)
	Release() error
}

// Terminal is a Visualizer over stdin/stdout.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a terminal visualizer reading from os.Stdin.
func NewTerminal() *Terminal {
	return &Terminal{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewTerminalWith creates a terminal visualizer over explicit streams.
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Ask renders the data point and re-prompts until it reads an accepted key.
// EOF on the input stream is reported as a quit so an interrupted session
// still winds down cleanly.
func (t *Terminal) Ask(dp *database.DataPoint, prompt string, keys []string) (string, error) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, "================================================================")
	fmt.Fprintf(t.out, "  Function: %s  BC: %s  Slice: %d  Trace: %d\n", dp.Func, dp.BC, dp.SliceID, dp.TraceID)
	fmt.Fprintln(t.out, "================================================================")
	if doc, err := json.MarshalIndent(dp.Slice(), "  ", "  "); err == nil {
		fmt.Fprintf(t.out, "  %s\n", doc)
	}

	for {
		fmt.Fprint(t.out, prompt)
		line, err := t.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "q" || (err != nil && answer == "") {
			return "q", nil
		}
		if slices.Contains(keys, answer) {
			return answer, nil
		}
		if err != nil {
			return "q", nil
		}
		fmt.Fprintf(t.out, "  expected one of %s or q\n", strings.Join(keys, "|"))
	}
}

// Release is a no-op for the terminal; stdin is not owned by us.
func (t *Terminal) Release() error { return nil }
