package app

import (
	"bytes"
	"sync"
)

// LogSink is an io.Writer that splits log output into lines for the debug
// overlay. Lines are dropped when the UI falls behind.
type LogSink struct {
	mu    sync.Mutex
	buf   []byte
	lines chan string
}

// NewLogSink creates a sink buffering up to size undelivered lines.
func NewLogSink(size int) *LogSink {
	return &LogSink{lines: make(chan string, size)}
}

func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, p...)
	for {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 {
			break
		}
		line := string(s.buf[:i])
		s.buf = s.buf[i+1:]
		select {
		case s.lines <- line:
		default:
		}
	}
	return len(p), nil
}

// Lines delivers completed lines.
func (s *LogSink) Lines() <-chan string {
	return s.lines
}
