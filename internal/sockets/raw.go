package sockets

import "errors"

var (
	// ErrRecordMalformed marks a single descriptor that could not be normalized.
	ErrRecordMalformed = errors.New("malformed connection record")
	// ErrEnumerationUnavailable marks a failure of the OS listing call itself.
	ErrEnumerationUnavailable = errors.New("connection enumeration unavailable")
)

// SocketType mirrors the BSD socket type constants.
type SocketType int

const (
	SockStream SocketType = 1
	SockDgram  SocketType = 2
)

// Endpoint is an address as reported by the OS. IP is textual and may be empty.
type Endpoint struct {
	IP   string
	Port int
}

// Raw is one connection descriptor as the OS reported it. Any of the
// optional parts may be missing: Local/Remote nil, Status empty, PID zero.
type Raw struct {
	Type     SocketType
	Local    *Endpoint
	Remote   *Endpoint
	Status   string
	PID      int32
	ProcName string

	// Source is the original text of the descriptor, kept for log context.
	Source string
	// Err is set when the enumerator saw a socket but could not decode it.
	Err error
}

// Enumerator lists the host's sockets. Each call reflects current state.
type Enumerator interface {
	Enumerate() ([]Raw, error)
}

// EnumeratorFunc adapts a function to Enumerator.
type EnumeratorFunc func() ([]Raw, error)

func (f EnumeratorFunc) Enumerate() ([]Raw, error) { return f() }
