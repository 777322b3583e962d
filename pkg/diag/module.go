package diag

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

type Kind string

const (
	Extraction    Kind = "extraction"
	MaterialParse Kind = "material-parse"
	ManifestParse Kind = "manifest-parse"
	Mapping       Kind = "mapping"
	Unresolved    Kind = "unresolved-reference"
	Output        Kind = "output"
)

// A Diagnostic records one non-fatal condition encountered during a run:
// what happened, what kind of condition it was, and the identifier or name
// of the offending entry.
type Diagnostic struct {
	Kind    Kind
	Subject string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Subject, d.Message)
}

// A Sink collects diagnostics from pipeline workers. Safe for concurrent use.
type Sink struct {
	mu   deadlock.Mutex
	list []Diagnostic
}

func NewSink() *Sink {
	return &Sink{
		list: make([]Diagnostic, 0),
	}
}

func (s *Sink) Report(kind Kind, subject string, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = append(s.list, Diagnostic{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	})
}

// All returns a copy of every diagnostic reported so far.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Diagnostic, len(s.list))
	copy(out, s.list)
	return out
}

func (s *Sink) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, d := range s.list {
		if d.Kind == kind {
			count++
		}
	}
	return count
}
