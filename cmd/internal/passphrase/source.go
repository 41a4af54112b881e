package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when no environment value is set and stdin is not
// interactive.
var ErrNoTerminal = errors.New("passphrase: no terminal available")

// Source resolves a keystore passphrase once, from an environment variable or
// an interactive prompt, and caches the result.
type Source struct {
	envVar string
	prompt string
	out    io.Writer

	once  sync.Once
	value string
	err   error
}

// NewSource returns a source that reads envVar before prompting with prompt.
func NewSource(envVar, prompt string) *Source {
	if strings.TrimSpace(prompt) == "" {
		prompt = "Keystore passphrase: "
	}
	return &Source{envVar: strings.TrimSpace(envVar), prompt: prompt, out: os.Stderr}
}

// Get returns the passphrase. Blank values are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("passphrase: %s is set but blank", s.envVar)
			}
			return value, nil
		}
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if s.envVar != "" {
			return "", fmt.Errorf("%w: set %s", ErrNoTerminal, s.envVar)
		}
		return "", ErrNoTerminal
	}
	fmt.Fprint(s.out, s.prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return "", fmt.Errorf("passphrase: read: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return "", errors.New("passphrase: blank passphrase")
	}
	return string(raw), nil
}
