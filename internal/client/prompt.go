package client

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/handmind/internal/service"
)

// Prompter reads answers line by line from an input stream.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and printing labels to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the next trimmed input line. ok is false at end of input.
func (p *Prompter) Line(label string) (string, bool) {
	if label != "" {
		fmt.Fprint(p.out, label)
	}
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// Credentials asks for an email and a password.
func (p *Prompter) Credentials() (email, password string) {
	email, _ = p.Line("Email: ")
	password, _ = p.Line("Password: ")
	return email, password
}

// NewModule asks for every field of a module. An empty "locked" answer keeps
// the server default.
func (p *Prompter) NewModule() (service.CreateModuleInput, error) {
	var in service.CreateModuleInput
	in.Title, _ = p.Line("Title: ")
	in.Description, _ = p.Line("Description: ")

	levelStr, _ := p.Line("Level: ")
	level, err := strconv.Atoi(levelStr)
	if err != nil {
		return in, fmt.Errorf("level must be a number: %q", levelStr)
	}
	in.Level = level

	in.ImageURL, _ = p.Line("Image URL: ")

	locked, err := p.optionalBool("Locked (y/n, empty for default): ")
	if err != nil {
		return in, err
	}
	in.IsLocked = locked
	return in, nil
}

// ModulePatch asks for new values; empty answers leave the field unchanged.
func (p *Prompter) ModulePatch() (service.UpdateModuleInput, error) {
	var in service.UpdateModuleInput
	in.Title = p.optionalString("New title (empty to keep): ")
	in.Description = p.optionalString("New description (empty to keep): ")

	if s, _ := p.Line("New level (empty to keep): "); s != "" {
		level, err := strconv.Atoi(s)
		if err != nil {
			return in, fmt.Errorf("level must be a number: %q", s)
		}
		in.Level = &level
	}

	in.ImageURL = p.optionalString("New image URL (empty to keep): ")

	locked, err := p.optionalBool("Locked (y/n, empty to keep): ")
	if err != nil {
		return in, err
	}
	in.IsLocked = locked
	return in, nil
}

func (p *Prompter) optionalString(label string) *string {
	s, _ := p.Line(label)
	if s == "" {
		return nil
	}
	return &s
}

func (p *Prompter) optionalBool(label string) (*bool, error) {
	s, _ := p.Line(label)
	switch strings.ToLower(s) {
	case "":
		return nil, nil
	case "y", "yes", "true":
		v := true
		return &v, nil
	case "n", "no", "false":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("expected y or n, got %q", s)
	}
}
