package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner while a long-running step is in flight and a
// final status line when it ends. In quiet mode it prints nothing.
type Progress struct {
	out     io.Writer
	quiet   bool
	spinner *spinner.Spinner
}

// StartProgress starts a spinner with message on out. The spinner only
// animates when out is a terminal.
func StartProgress(out io.Writer, message string, quiet bool) *Progress {
	p := &Progress{out: out, quiet: quiet}
	if quiet {
		return p
	}

	p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	p.spinner.Suffix = " " + message
	p.spinner.Start()
	return p
}

// Update replaces the spinner message.
func (p *Progress) Update(message string) {
	if p.spinner == nil {
		return
	}
	p.spinner.Lock()
	p.spinner.Suffix = " " + message
	p.spinner.Unlock()
}

// Writer returns a writer for messages printed while the spinner runs. Each
// write clears the spinner line first so the message is not interleaved
// with the animation.
func (p *Progress) Writer() io.Writer {
	return progressWriter{p: p}
}

// Success stops the spinner and prints a green check with message.
func (p *Progress) Success(message string) {
	p.finish(fmt.Sprintf("%s %s", text.FgGreen.Sprint("✓"), message))
}

// Fail stops the spinner and prints a red cross with message.
func (p *Progress) Fail(message string) {
	p.finish(fmt.Sprintf("%s %s", text.FgRed.Sprint("✗"), message))
}

// Stop stops the spinner without printing anything.
func (p *Progress) Stop() {
	if p.spinner != nil {
		p.spinner.Stop()
	}
}

func (p *Progress) finish(line string) {
	p.Stop()
	if !p.quiet {
		fmt.Fprintln(p.out, line)
	}
}

type progressWriter struct {
	p *Progress
}

func (w progressWriter) Write(b []byte) (int, error) {
	s := w.p.spinner
	if s == nil || !s.Active() {
		return w.p.out.Write(b)
	}

	s.Lock()
	defer s.Unlock()
	if _, err := io.WriteString(w.p.out, "\r\033[K"); err != nil {
		return 0, err
	}
	return w.p.out.Write(b)
}
