package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// console reads user input a line at a time without blocking callers that
// also wait on other events
type console struct {
	lines <-chan string
	out   io.Writer
}

func newConsole(in io.Reader, out io.Writer) *console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return &console{lines: lines, out: out}
}

// ReadLine returns false once input is exhausted or ctx is done
func (c *console) ReadLine(ctx context.Context, prompt string) (string, bool) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	select {
	case line, ok := <-c.lines:
		return strings.TrimSpace(line), ok
	case <-ctx.Done():
		return "", false
	}
}

// Confirm asks a yes/no question, defaulting to no
func (c *console) Confirm(ctx context.Context, question string) bool {
	answer, ok := c.ReadLine(ctx, question+" [y/N] ")
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
