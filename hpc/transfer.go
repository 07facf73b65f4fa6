package hpc

import (
	"io"
	"os"

	"github.com/pkg/sftp"
)

// TransferChannel is the file-transfer surface consumed by the editor,
// archiver, uploader and job builder. The production implementation is
// an SFTP subsystem channel; tests substitute an in-memory tree.
type TransferChannel interface {
	ReadDir(path string) ([]os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Chmod(path string, mode os.FileMode) error
	Close() error
}

type sftpChannel struct {
	c *sftp.Client
}

func (ch sftpChannel) ReadDir(path string) ([]os.FileInfo, error) { return ch.c.ReadDir(path) }

func (ch sftpChannel) Open(path string) (io.ReadCloser, error) { return ch.c.Open(path) }

func (ch sftpChannel) Create(path string) (io.WriteCloser, error) { return ch.c.Create(path) }

func (ch sftpChannel) Chmod(path string, mode os.FileMode) error { return ch.c.Chmod(path, mode) }

func (ch sftpChannel) Close() error { return ch.c.Close() }

// putFile copies a local scratch file to remotePath over an open
// channel.
func putFile(ch TransferChannel, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := ch.Create(remotePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
