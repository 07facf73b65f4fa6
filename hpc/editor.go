package hpc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"
)

const (
	// maxDisplayBytes is the largest file served whole to the editor.
	maxDisplayBytes = 5000000
	// maxDisplayLines additionally caps truncated reads.
	maxDisplayLines = 50000

	truncateMarker = "\n\n[TRUNCATED - FILE TOO LARGE TO DISPLAY FULLY]"
)

// EditorBuffer is the ephemeral content of one open remote file. It is
// never synced back until an explicit save.
type EditorBuffer struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// loadFileLocked stats the file and reads either the whole content or
// a line- and byte-capped head for oversized files. Invalid bytes are
// replaced rather than failing the decode.
func (s *Session) loadFileLocked(fullPath string) (*EditorBuffer, error) {
	quoted := shellescape.Quote(fullPath)

	res, err := s.exec("stat -c%s " + quoted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(res.Stdout), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unexpected stat output %q", ErrRemoteCommand, strings.TrimSpace(res.Stderr))
	}

	if size > maxDisplayBytes {
		res, err = s.exec(fmt.Sprintf("head -n %d %s | head -c %d", maxDisplayLines, quoted, maxDisplayBytes))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
		}
		content := strings.ToValidUTF8(res.Stdout, "�")
		if len(content) > maxDisplayBytes {
			content = content[:maxDisplayBytes]
		}
		return &EditorBuffer{Path: fullPath, Content: content + truncateMarker, Truncated: true}, nil
	}

	res, err = s.exec("cat " + quoted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	return &EditorBuffer{Path: fullPath, Content: strings.ToValidUTF8(res.Stdout, "�")}, nil
}

// Save writes the edited content back to the open file by staging it
// in a local scratch file and uploading over the transfer channel. The
// buffer on the client is left untouched on failure so the user can
// retry.
func (s *Session) Save(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if !s.editorOpen || s.editorPath == "" {
		return fmt.Errorf("%w: no file open for editing", ErrValidation)
	}
	return s.putContentLocked(s.editorPath, content, 0)
}

// putContentLocked stages content in a scratch file and uploads it.
// The scratch file is removed on every exit path. A non-zero mode is
// applied to the remote file after upload.
func (s *Session) putContentLocked(remotePath, content string, mode os.FileMode) error {
	scratch, err := os.CreateTemp("", "cognition-stage-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer os.Remove(scratch.Name())

	if _, err := scratch.WriteString(content); err != nil {
		scratch.Close()
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if err := scratch.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}

	ch, err := s.transferFn()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer ch.Close()

	if err := putFile(ch, scratch.Name(), remotePath); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	if mode != 0 {
		if err := ch.Chmod(remotePath, mode); err != nil {
			return fmt.Errorf("%w: %v", ErrTransfer, err)
		}
	}
	return nil
}
