package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompt asks the user on a terminal. Answers are kept for the lifetime of
// the process. Allowing fine location also allows coarse location, so the
// coarse question is never asked once fine has been granted.
type Prompt struct {
	askMu sync.Mutex // serializes questions on the terminal

	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	answers map[Kind]bool
}

// NewPrompt returns an Authority that reads answers from in and writes
// questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		in:      bufio.NewReader(in),
		out:     out,
		answers: make(map[Kind]bool),
	}
}

func (p *Prompt) Granted(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ok, _ := p.answerLocked(kind)
	return ok
}

// answerLocked returns the recorded answer for kind and whether there is
// one. p.mu must be held.
func (p *Prompt) answerLocked(kind Kind) (ok, answered bool) {
	if kind == CoarseLocation && p.answers[FineLocation] {
		return true, true
	}
	ok, answered = p.answers[kind]
	return ok, answered
}

// Request asks about each kind on its own goroutine and calls done with the
// answers. Kinds already answered are not asked again.
func (p *Prompt) Request(ctx context.Context, kinds []Kind, done func(Decision)) {
	go func() {
		p.askMu.Lock()
		defer p.askMu.Unlock()

		d := make(Decision, len(kinds))
		for _, k := range kinds {
			if ctx.Err() != nil {
				return
			}
			p.mu.Lock()
			ok, asked := p.answerLocked(k)
			p.mu.Unlock()
			if !asked {
				ok = p.ask(k)
				p.mu.Lock()
				p.answers[k] = ok
				p.mu.Unlock()
			}
			d[k] = ok
		}
		done(d)
	}()
}

func (p *Prompt) ask(kind Kind) bool {
	_, _ = fmt.Fprintf(p.out, "Allow cellwatch to access %s? [y/N] ", strings.ReplaceAll(kind.String(), "_", " "))
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
