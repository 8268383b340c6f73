package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrPromptCancelled is returned when the user interrupts a prompt with
// Ctrl+C or closes input with Ctrl+D.
var ErrPromptCancelled = errors.New("prompt cancelled")

// lineReader is the part of *readline.Instance the prompter uses.
type lineReader interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Close() error
}

// Prompter reads interactive input: plain lines for pasted URLs and masked
// input for secrets.
type Prompter struct {
	rl lineReader
}

// NewPrompter creates a prompter on stdin and stdout. A nil stdin or stdout
// selects the process streams.
func NewPrompter(stdin io.ReadCloser, stdout io.Writer) (*Prompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:           stdin,
		Stdout:          stdout,
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &Prompter{rl: rl}, nil
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.rl.Close()
}

// ReadSecret reads a value without echoing it.
func (p *Prompter) ReadSecret(ctx context.Context, prompt string) (string, error) {
	return readWithContext(ctx, func() (string, error) {
		b, err := p.rl.ReadPassword(prompt)
		return string(b), err
	})
}

// ReadLine reads one line of visible input, trimmed of surrounding space.
func (p *Prompter) ReadLine(ctx context.Context, prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	return readWithContext(ctx, p.rl.Readline)
}

// readWithContext runs read and maps interrupts to ErrPromptCancelled. The
// context is only checked before reading; readline has no way to abort an
// in-flight read.
func readWithContext(ctx context.Context, read func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := read()
	switch {
	case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
		return "", ErrPromptCancelled
	case err != nil:
		return "", fmt.Errorf("readline error: %w", err)
	}
	return strings.TrimSpace(line), nil
}
