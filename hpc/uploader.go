package hpc

import (
	"fmt"
	"io"
	"path"
)

// UploadFile is one local file staged for transfer.
type UploadFile struct {
	Name   string
	Reader io.Reader
}

// UploadProgress reports one completed push.
type UploadProgress struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// UploadFiles pushes the staged files in order into the current remote
// directory over one transfer channel, preserving original filenames.
// The first failure aborts the remaining uploads; files pushed before
// the failure stay on the remote host.
func (s *Session) UploadFiles(files []UploadFile) ([]UploadProgress, error) {
	if len(files) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}

	ch, err := s.transferFn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer ch.Close()

	done := make([]UploadProgress, 0, len(files))
	for _, f := range files {
		remote := path.Join(s.cwd, f.Name)

		dst, err := ch.Create(remote)
		if err != nil {
			return done, fmt.Errorf("%w: %s: %v", ErrTransfer, f.Name, err)
		}
		n, err := io.Copy(dst, f.Reader)
		if err != nil {
			dst.Close()
			return done, fmt.Errorf("%w: %s: %v", ErrTransfer, f.Name, err)
		}
		if err := dst.Close(); err != nil {
			return done, fmt.Errorf("%w: %s: %v", ErrTransfer, f.Name, err)
		}
		done = append(done, UploadProgress{Name: f.Name, Bytes: n})
	}
	return done, nil
}
