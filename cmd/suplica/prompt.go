package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errAborted = errors.New("aborted")

// prompter asks questions on a terminal. Passwords are read without echo
// when the input is a tty.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}

	return p
}

// Line reads one line, returning def when it is empty.
func (p *prompter) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	s, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		if errors.Is(err, io.EOF) {
			return "", errAborted
		}

		return "", err
	}

	if s = strings.TrimSpace(s); s == "" {
		return def, nil
	}

	return s, nil
}

// Required repeats the question until an answer is given.
func (p *prompter) Required(label string) (string, error) {
	for {
		s, err := p.Line(label, "")
		if err != nil || s != "" {
			return s, err
		}

		fmt.Fprintln(p.out, "  obligatorio")
	}
}

func (p *prompter) Password(label string) (string, error) {
	if !p.tty {
		return p.Line(label, "")
	}

	fmt.Fprintf(p.out, "%s: ", label)

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)

	if err != nil {
		return "", err
	}

	return string(b), nil
}
