package hpc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cognition-bio/cognition/models"
)

// Archive is a downloadable payload: a raw file or a zipped directory
// tree.
type Archive struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Download fetches the selected entry over a single transfer channel.
// Files stream as-is; directories are walked recursively and zipped
// with entry paths relative to the download root. Any error aborts the
// whole download, never delivering a partial archive.
func (s *Session) Download() (*Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}
	item := s.selection
	if item == nil {
		return nil, fmt.Errorf("%w: nothing selected", ErrValidation)
	}
	if item.Name == ".." {
		return nil, fmt.Errorf("%w: cannot download %q", ErrValidation, item.Name)
	}

	full := path.Join(s.cwd, item.Name)

	ch, err := s.transferFn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer ch.Close()

	if item.Kind == models.KindFile {
		src, err := ch.Open(full)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
		}
		return &Archive{Filename: item.Name, ContentType: "application/octet-stream", Data: data}, nil
	}

	data, err := zipDirectory(ch, full)
	if err != nil {
		return nil, err
	}
	return &Archive{Filename: item.Name + ".zip", ContentType: "application/zip", Data: data}, nil
}

// zipDirectory walks the remote tree with an explicit stack over one
// open channel. Directory handles are not guaranteed stable across
// reconnects, so a per-file channel is not an option, and the explicit
// stack keeps adversarially deep trees from exhausting the call stack.
func zipDirectory(ch TransferChannel, root string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := ch.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
		}
		for _, entry := range entries {
			remote := path.Join(dir, entry.Name())
			if entry.IsDir() {
				stack = append(stack, remote)
				continue
			}

			rel := strings.TrimPrefix(strings.TrimPrefix(remote, root), "/")
			w, err := zw.Create(rel)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
			}
			src, err := ch.Open(remote)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
			}
			if _, err := io.Copy(w, src); err != nil {
				src.Close()
				return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
			}
			src.Close()
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return buf.Bytes(), nil
}
