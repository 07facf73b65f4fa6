package hpc

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSession returns a session that behaves connected, with remote
// commands answered by fn.
func testSession(t *testing.T, fn func(cmd string) (execResult, error)) *Session {
	t.Helper()
	s := NewSession(time.Second)
	s.connected = true
	s.host = "hpc.example.edu"
	s.username = "jdoe"
	s.cwd = "/home/jdoe"
	s.execFn = func(cmd string, _ time.Duration) (execResult, error) { return fn(cmd) }
	return s
}

// scripted answers commands from a map keyed by exact command text and
// records everything that was run.
type scripted struct {
	replies map[string]execResult
	ran     []string
}

func (sc *scripted) exec(cmd string) (execResult, error) {
	sc.ran = append(sc.ran, cmd)
	if res, ok := sc.replies[cmd]; ok {
		return res, nil
	}
	return execResult{}, nil
}

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (f fakeInfo) Name() string { return f.name }
func (f fakeInfo) Size() int64  { return f.size }
func (f fakeInfo) Mode() os.FileMode {
	if f.dir {
		return os.ModeDir | 0o755
	}
	return 0o644
}
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.dir }
func (f fakeInfo) Sys() interface{}   { return nil }

// memChannel is an in-memory TransferChannel. Directories are the keys
// of dirs; everything else is a file in files.
type memChannel struct {
	files   map[string][]byte
	dirs    map[string][]string
	chmods  map[string]os.FileMode
	openErr map[string]error
	closed  bool
}

func newMemChannel() *memChannel {
	return &memChannel{
		files:   map[string][]byte{},
		dirs:    map[string][]string{},
		chmods:  map[string]os.FileMode{},
		openErr: map[string]error{},
	}
}

func (m *memChannel) ReadDir(dir string) ([]os.FileInfo, error) {
	names, ok := m.dirs[dir]
	if !ok {
		return nil, errors.New("no such directory: " + dir)
	}
	var infos []os.FileInfo
	for _, name := range names {
		full := path.Join(dir, name)
		if _, isDir := m.dirs[full]; isDir {
			infos = append(infos, fakeInfo{name: name, dir: true})
			continue
		}
		infos = append(infos, fakeInfo{name: name, size: int64(len(m.files[full]))})
	}
	return infos, nil
}

func (m *memChannel) Open(p string) (io.ReadCloser, error) {
	if err := m.openErr[p]; err != nil {
		return nil, err
	}
	data, ok := m.files[p]
	if !ok {
		return nil, errors.New("no such file: " + p)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type memWriter struct {
	buf  bytes.Buffer
	done func([]byte)
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error {
	w.done(w.buf.Bytes())
	return nil
}

func (m *memChannel) Create(p string) (io.WriteCloser, error) {
	return &memWriter{done: func(data []byte) { m.files[p] = data }}, nil
}

func (m *memChannel) Chmod(p string, mode os.FileMode) error {
	m.chmods[p] = mode
	return nil
}

func (m *memChannel) Close() error {
	m.closed = true
	return nil
}

func TestStatusReflectsSessionState(t *testing.T) {
	s := NewSession(time.Second)
	st := s.Status()
	assert.False(t, st.Connected)
	assert.Equal(t, "~", st.Directory)

	s = testSession(t, func(string) (execResult, error) { return execResult{}, nil })
	st = s.Status()
	assert.True(t, st.Connected)
	assert.Equal(t, "hpc.example.edu", st.Host)
	assert.Equal(t, "jdoe", st.Username)
	assert.Equal(t, "/home/jdoe", st.Directory)
}

func TestDisconnectResetsStateAndIsNotIdempotentlySilent(t *testing.T) {
	s := testSession(t, func(string) (execResult, error) { return execResult{}, nil })
	s.selection = &testEntry
	s.editorOpen = true
	s.scrollback = []string{"$ ls"}
	s.jobModules.Add("gcc/12.2")

	require.NoError(t, s.Disconnect())

	st := s.Status()
	assert.False(t, st.Connected)
	assert.Equal(t, "~", st.Directory)
	assert.Nil(t, st.Selection)
	assert.False(t, st.EditorOpen)
	assert.Empty(t, s.jobModules.Names())
	assert.Equal(t, []string{"$ ls"}, s.Scrollback(), "console log survives disconnect")

	err := s.Disconnect()
	assert.True(t, IsNotConnected(err))
}

func TestExecWhileDisconnected(t *testing.T) {
	s := NewSession(time.Second)
	_, err := s.List()
	assert.True(t, IsNotConnected(err))
}
