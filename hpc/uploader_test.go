package hpc

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFilesWritesIntoCurrentDirectory(t *testing.T) {
	ch := newMemChannel()
	s := testSession(t, func(string) (execResult, error) { return execResult{}, nil })
	s.transferFn = func() (TransferChannel, error) { return ch, nil }

	done, err := s.UploadFiles([]UploadFile{
		{Name: "reads.fq", Reader: strings.NewReader("@r1\nACGT\n")},
		{Name: "ref.fa", Reader: strings.NewReader(">chr1\nACGT\n")},
	})
	require.NoError(t, err)

	require.Len(t, done, 2)
	assert.Equal(t, UploadProgress{Name: "reads.fq", Bytes: 9}, done[0])
	assert.Equal(t, UploadProgress{Name: "ref.fa", Bytes: 11}, done[1])
	assert.Equal(t, []byte("@r1\nACGT\n"), ch.files["/home/jdoe/reads.fq"])
	assert.Equal(t, []byte(">chr1\nACGT\n"), ch.files["/home/jdoe/ref.fa"])
	assert.True(t, ch.closed)
}

func TestUploadFilesEmptyIsNoOp(t *testing.T) {
	s := NewSession(0)
	done, err := s.UploadFiles(nil)
	assert.NoError(t, err)
	assert.Nil(t, done)
}

func TestUploadFilesFirstFailureAborts(t *testing.T) {
	ch := newMemChannel()
	s := testSession(t, func(string) (execResult, error) { return execResult{}, nil })
	s.transferFn = func() (TransferChannel, error) { return ch, nil }

	bad := io.MultiReader(strings.NewReader("partial"), errReader{})
	done, err := s.UploadFiles([]UploadFile{
		{Name: "ok.txt", Reader: strings.NewReader("fine")},
		{Name: "broken.bin", Reader: bad},
		{Name: "never.txt", Reader: strings.NewReader("unreached")},
	})

	assert.ErrorIs(t, err, ErrTransfer)
	require.Len(t, done, 1, "completed uploads reported back")
	assert.Equal(t, "ok.txt", done[0].Name)
	assert.NotContains(t, ch.files, "/home/jdoe/never.txt")
}

func TestUploadFilesWhileDisconnected(t *testing.T) {
	s := NewSession(0)
	_, err := s.UploadFiles([]UploadFile{{Name: "a", Reader: strings.NewReader("x")}})
	assert.True(t, IsNotConnected(err))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("stream reset") }
