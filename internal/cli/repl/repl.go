// Package repl runs a line-oriented read-eval-print loop.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultPrompt is printed before every line.
const DefaultPrompt = "cardhist> "

// ErrQuit stops the loop without reporting an error.
var ErrQuit = errors.New("repl: quit")

// Handler evaluates one non-empty line.
type Handler func(ctx context.Context, line string) error

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input   io.Reader
	output  io.Writer
	prompt  string
	handler Handler
}

// New creates a REPL reading from in and writing prompts and errors to out.
func New(in io.Reader, out io.Writer, handler Handler) *REPL {
	return &REPL{input: in, output: out, prompt: DefaultPrompt, handler: handler}
}

// WithPrompt replaces the prompt.
func (r *REPL) WithPrompt(prompt string) *REPL {
	r.prompt = prompt
	return r
}

// Run reads lines until EOF, "exit", "quit", ErrQuit or ctx is done. Handler
// errors are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	if r.handler == nil {
		return fmt.Errorf("repl: handler is required")
	}
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "exit" || line == "quit":
			return nil
		default:
			if herr := r.handler(ctx, line); herr != nil {
				if errors.Is(herr, ErrQuit) {
					return nil
				}
				fmt.Fprintf(r.output, "error: %v\n", herr)
			}
		}

		if eof {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}
