package hpc

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
)

// scrollbackLimit caps the console log; oldest entries are dropped
// first and ordering is preserved.
const scrollbackLimit = 500

// ConsoleResult is one executed console command.
type ConsoleResult struct {
	Transcript string `json:"transcript"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
}

// Execute runs one shell command inside a login shell in the current
// directory and appends the transcript to the scrollback. Blank input
// is a silent no-op; executing while disconnected reports a warning
// and leaves the scrollback untouched. The command text is quoted as a
// whole so metacharacters in it cannot escape the login-shell wrapper.
func (s *Session) Execute(commandText string) (*ConsoleResult, error) {
	text := strings.TrimSpace(commandText)
	if text == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}

	full := fmt.Sprintf("cd %s && bash -l -c %s", shellescape.Quote(s.cwd), shellescape.Quote(text))
	res, err := s.exec(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}

	entry := fmt.Sprintf("$ %s\n%s%s", full, res.Stdout, res.Stderr)
	s.scrollback = append(s.scrollback, entry)
	if len(s.scrollback) > scrollbackLimit {
		s.scrollback = s.scrollback[len(s.scrollback)-scrollbackLimit:]
	}

	return &ConsoleResult{Transcript: entry, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

// Scrollback returns the console log in execution order.
func (s *Session) Scrollback() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.scrollback))
	copy(out, s.scrollback)
	return out
}
