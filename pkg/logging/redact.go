package logging

import (
	"bytes"
	"io"
	"sync"
)

// Mask replaces registered secrets in log output.
const Mask = "********"

// minSecretLen keeps short values such as "1" or "on" from masking
// unrelated log text.
const minSecretLen = 4

var secrets = &secretSet{}

type secretSet struct {
	mu     sync.RWMutex
	values [][]byte
}

// RegisterSecret marks a value that must never reach a log line, such as a
// resolved credential.
func RegisterSecret(value string) {
	if len(value) < minSecretLen {
		return
	}
	secrets.mu.Lock()
	defer secrets.mu.Unlock()
	for _, v := range secrets.values {
		if string(v) == value {
			return
		}
	}
	secrets.values = append(secrets.values, []byte(value))
}

// ResetSecrets forgets every registered secret.
func ResetSecrets() {
	secrets.mu.Lock()
	secrets.values = nil
	secrets.mu.Unlock()
}

func (s *secretSet) redact(p []byte) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.values {
		if bytes.Contains(p, v) {
			p = bytes.ReplaceAll(p, v, []byte(Mask))
		}
	}
	return p
}

type redactingWriter struct{ w io.Writer }

// Redact wraps w so registered secrets are masked before they are written.
func Redact(w io.Writer) io.Writer {
	return redactingWriter{w: w}
}

func (r redactingWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write(secrets.redact(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
