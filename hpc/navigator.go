package hpc

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/cognition-bio/cognition/models"
)

// List returns a fresh long-format listing of the current directory.
// Dotfiles are skipped and a synthetic ".." entry leads the result
// whenever the cursor is not at the filesystem root.
func (s *Session) List() (models.DirectoryListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *Session) listLocked() (models.DirectoryListing, error) {
	if !s.connected {
		return models.DirectoryListing{Path: s.cwd}, ErrNotConnected
	}

	res, err := s.exec("ls -l " + shellescape.Quote(s.cwd))
	if err != nil {
		return models.DirectoryListing{Path: s.cwd}, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}

	return models.DirectoryListing{
		Path:    s.cwd,
		Entries: parseListing(res.Stdout, s.cwd == "/"),
	}, nil
}

// parseListing turns `ls -l` output into directory entries. Rows with
// fewer than nine columns are ignored, which also drops the leading
// "total" summary line. Names containing spaces are reassembled from
// the trailing columns.
func parseListing(output string, atRoot bool) []models.DirectoryEntry {
	var entries []models.DirectoryEntry
	if !atRoot {
		entries = append(entries, models.DirectoryEntry{
			Name:        "..",
			Kind:        models.KindDirectory,
			Permissions: "drwxr-xr-x",
		})
	}

	for _, line := range strings.Split(output, "\n") {
		parts := strings.Fields(line)
		if len(parts) < 9 {
			continue
		}
		name := strings.Join(parts[8:], " ")
		if strings.HasPrefix(name, ".") {
			continue
		}

		kind := models.KindFile
		if strings.HasPrefix(parts[0], "d") {
			kind = models.KindDirectory
		}
		size, _ := strconv.ParseInt(parts[4], 10, 64)

		entries = append(entries, models.DirectoryEntry{
			Name:        name,
			Kind:        kind,
			SizeBytes:   size,
			Owner:       parts[2],
			Permissions: parts[0],
		})
	}
	return entries
}

// Select marks a listed entry as the target for open/delete/download.
// The name must appear in a fresh listing, so a stale client cannot
// select an entry that no longer exists.
func (s *Session) Select(name string) (*models.DirectoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, err := s.listLocked()
	if err != nil {
		return nil, err
	}
	for i := range listing.Entries {
		if listing.Entries[i].Name == name {
			entry := listing.Entries[i]
			s.selection = &entry
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("%w: no such entry %q", ErrValidation, name)
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
}

// Open acts on the current selection: directories become the new
// cursor after a remote existence check, files are loaded into an
// editor buffer. A failed directory check leaves the cursor unchanged.
func (s *Session) Open() (*EditorBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.selection
	if item == nil {
		return nil, fmt.Errorf("%w: nothing selected", ErrValidation)
	}

	if item.Kind == models.KindDirectory {
		target := path.Join(s.cwd, item.Name)
		if item.Name == ".." {
			target = path.Dir(strings.TrimRight(s.cwd, "/"))
			if target == "" || target == "." {
				target = "/"
			}
		}

		res, err := s.exec("[ -d " + shellescape.Quote(target) + " ]")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
		}
		if res.ExitCode != 0 {
			return nil, fmt.Errorf("%w: invalid directory %s", ErrValidation, target)
		}
		s.setDirectoryLocked(target)
		return nil, nil
	}

	buf, err := s.loadFileLocked(path.Join(s.cwd, item.Name))
	if err != nil {
		return nil, err
	}
	s.editorOpen = true
	s.editorPath = buf.Path
	return buf, nil
}

// Delete removes the selected entry, recursively for directories. The
// selection is cleared only on success so a failed delete can be
// retried.
func (s *Session) Delete() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.selection
	if item == nil {
		return "", fmt.Errorf("%w: nothing selected", ErrValidation)
	}
	if item.Name == ".." {
		return "", fmt.Errorf("%w: cannot delete %q", ErrValidation, item.Name)
	}

	target := shellescape.Quote(path.Join(s.cwd, item.Name))
	cmd := "rm " + target
	if item.Kind == models.KindDirectory {
		cmd = "rm -rf " + target
	}

	res, err := s.exec(cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: %s", ErrRemoteCommand, strings.TrimSpace(res.Stderr))
	}

	name := item.Name
	s.selection = nil
	s.editorOpen = false
	s.editorPath = ""
	return name, nil
}
