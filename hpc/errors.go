package hpc

import "errors"

// Failure taxonomy for remote operations. Handlers map these onto
// user-visible notifications; none of them tears down the session
// except a failed connect, which never leaves a half-open handle.
var (
	// ErrNotConnected is returned when a remote operation is attempted
	// without a live connection.
	ErrNotConnected = errors.New("not connected to HPC")

	// ErrConnection covers auth rejection, timeouts and unreachable
	// hosts during connect. Never retried automatically.
	ErrConnection = errors.New("connection failed")

	// ErrRemoteCommand covers non-zero exits and stderr output from
	// remote commands.
	ErrRemoteCommand = errors.New("remote command failed")

	// ErrTransfer covers upload/download failures over the transfer
	// channel.
	ErrTransfer = errors.New("transfer failed")

	// ErrValidation short-circuits before any remote call (bad
	// navigation target, empty selection, missing job fields).
	ErrValidation = errors.New("invalid request")
)

func IsNotConnected(err error) bool { return errors.Is(err, ErrNotConnected) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
