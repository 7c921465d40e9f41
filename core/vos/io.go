package vos

import (
	"io"
)

// VIO holds a process's standard streams.
type VIO interface {
	Stdin() io.Reader
	Stdout() io.Writer
	Stderr() io.Writer
}

// VIOAdapter is a VIO over arbitrary readers and writers.
type VIOAdapter struct {
	IStdin  io.Reader
	IStdout io.Writer
	IStderr io.Writer
}

var _ VIO = (*VIOAdapter)(nil)

// NewVIOAdapter builds a VIO; nil streams act like /dev/null.
func NewVIOAdapter(stdin io.Reader, stdout, stderr io.Writer) *VIOAdapter {
	vio := &VIOAdapter{IStdin: stdin, IStdout: stdout, IStderr: stderr}
	if vio.IStdin == nil {
		vio.IStdin = devNull{}
	}
	if vio.IStdout == nil {
		vio.IStdout = devNull{}
	}
	if vio.IStderr == nil {
		vio.IStderr = devNull{}
	}
	return vio
}

// NewNullIO creates /dev/null style I/O: reads hit EOF, writes are
// discarded.
func NewNullIO() VIO {
	return NewVIOAdapter(nil, nil, nil)
}

func (v *VIOAdapter) Stdin() io.Reader  { return v.IStdin }
func (v *VIOAdapter) Stdout() io.Writer { return v.IStdout }
func (v *VIOAdapter) Stderr() io.Writer { return v.IStderr }

// devNull discards writes and ends reads immediately.
type devNull struct{}

var _ io.ReadWriter = devNull{}

func (devNull) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (devNull) Write(b []byte) (int, error) {
	return len(b), nil
}
