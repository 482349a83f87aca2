package testutil

import (
	"bytes"
	"log"
	"sync"
	"testing"
)

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// TestLogger returns a logger whose output is attached to t and only shown
// for failing or verbose tests.
func TestLogger(t *testing.T) *log.Logger {
	return log.New(testWriter{t: t}, "[test] ", log.LstdFlags)
}

// SafeBuffer is a bytes.Buffer that can be written by several goroutines,
// for asserting on log output.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// BufferLogger returns a logger writing into a SafeBuffer.
func BufferLogger() (*log.Logger, *SafeBuffer) {
	buf := &SafeBuffer{}
	return log.New(buf, "[test] ", 0), buf
}
