package hpc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/cognition-bio/cognition/logging"
	"github.com/cognition-bio/cognition/models"
)

var log = logging.New("hpc")

type execResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Session owns one live secure-shell connection and the mutable state
// derived from it: the current directory cursor, the selection, the
// open editor buffer, the console scrollback and the per-connection
// scheduler caches. A single mutex serializes all operations, since
// the remote shell line protocol is not safe for interleaved use and
// at most one directory mutation may be in flight.
type Session struct {
	mu sync.Mutex

	client    *ssh.Client
	connected bool
	host      string
	username  string
	cwd       string

	selection  *models.DirectoryEntry
	editorOpen bool
	editorPath string

	scrollback []string

	moduleCatalog    []string
	partitions       []string
	defaultPartition string
	jobModules       ModuleSet

	execTimeout time.Duration

	// Indirection points replaced by fakes in tests.
	execFn     func(command string, timeout time.Duration) (execResult, error)
	transferFn func() (TransferChannel, error)
}

func NewSession(execTimeout time.Duration) *Session {
	return &Session{
		cwd:         "~",
		execTimeout: execTimeout,
	}
}

// Status is the connection summary shown in the dashboard sidebar.
type Status struct {
	Connected  bool                    `json:"connected"`
	Host       string                  `json:"host,omitempty"`
	Username   string                  `json:"username,omitempty"`
	Directory  string                  `json:"directory"`
	Selection  *models.DirectoryEntry  `json:"selection,omitempty"`
	EditorOpen bool                    `json:"editor_open"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Connected:  s.connected,
		Host:       s.host,
		Username:   s.username,
		Directory:  s.cwd,
		Selection:  s.selection,
		EditorOpen: s.editorOpen,
	}
}

// Connect establishes the secure-shell connection, verifies liveness
// by resolving the remote home directory and positions the cursor
// there. A failed attempt leaves the session disconnected with no
// half-open handle.
func (s *Session) Connect(host, username, password string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("%w: already connected to %s", ErrValidation, s.host)
	}

	addr := host
	if !strings.Contains(addr, ":") {
		addr += ":22"
	}
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // operator-entered hosts, no pinned keys
		Timeout:         timeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	s.client = client
	s.execFn = s.sshExec
	s.transferFn = s.openSFTP

	res, err := s.execFn("echo $HOME", s.execTimeout)
	home := strings.TrimSpace(res.Stdout)
	if err != nil || home == "" {
		client.Close()
		s.resetLocked()
		if err == nil {
			err = errors.New("could not resolve remote home directory")
		}
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	s.connected = true
	s.host = host
	s.username = username
	s.setDirectoryLocked(home)
	log.Info().Str("host", host).Str("user", username).Str("home", home).Msg("connected")
	return nil
}

// Disconnect closes the connection and resets all derived state. Safe
// to call repeatedly; a disconnected session reports ErrNotConnected
// so the UI can show a warning instead of a success toast.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing connection")
		}
	}
	s.resetLocked()
	log.Info().Msg("disconnected")
	return nil
}

// resetLocked returns the session to its disconnected baseline and
// invalidates every derived cache.
func (s *Session) resetLocked() {
	s.client = nil
	s.connected = false
	s.host = ""
	s.username = ""
	s.cwd = "~"
	s.selection = nil
	s.editorOpen = false
	s.editorPath = ""
	s.moduleCatalog = nil
	s.partitions = nil
	s.defaultPartition = ""
	s.jobModules = ModuleSet{}
	s.execFn = nil
	s.transferFn = nil
}

// setDirectoryLocked is the single mutation point for the directory
// cursor. Selection and any open editor are dropped with it so no
// later action can target an entry from the previous directory.
func (s *Session) setDirectoryLocked(dir string) {
	s.cwd = dir
	s.selection = nil
	s.editorOpen = false
	s.editorPath = ""
}

// exec runs a remote command with the session lock held.
func (s *Session) exec(command string) (execResult, error) {
	if !s.connected || s.execFn == nil {
		return execResult{}, ErrNotConnected
	}
	return s.execFn(command, s.execTimeout)
}

// sshExec runs one command on a fresh ssh channel, bounded by the
// configured timeout.
func (s *Session) sshExec(command string, timeout time.Duration) (execResult, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return execResult{}, err
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case err := <-done:
		res := execResult{Stdout: stdout.String(), Stderr: stderr.String()}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		if err != nil {
			return res, err
		}
		return res, nil
	case <-time.After(timeout):
		return execResult{}, fmt.Errorf("command timed out after %s", timeout)
	}
}

func (s *Session) openSFTP() (TransferChannel, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, err
	}
	return sftpChannel{c: client}, nil
}
