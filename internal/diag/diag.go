// Package diag is the diagnostic sink the core reports through. It follows
// the teacher's plain fmt/log-based error reporting (cmd/compile has no
// external logging dependency either; see DESIGN.md) rather than reaching
// for a structured logging library that nothing downstream consumes.
package diag

import "fmt"

// Severity distinguishes a hard error from a warning.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Class buckets a diagnostic by the originating concern (spec §7).
type Class int

const (
	ClassFileIO Class = iota
	ClassSyntax
	ClassSemantic
	ClassInternal
)

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	Code     int
	Class    Class
	File     string
	Line     int
	Col      int
	Message  string
}

func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s E%04d: %s", d.File, d.Line, d.Col, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s E%04d: %s", d.Severity, d.Code, d.Message)
}

// Location is the source position attached to a diagnostic; the zero value
// means "no location known yet" (used by delayed diagnostics, spec §7).
type Location struct {
	File string
	Line int
	Col  int
}

// Sink collects diagnostics, enforces per-severity maxima, and supports the
// delay/flush protocol for messages discovered before a source location is
// available.
type Sink struct {
	MaxErrors   int
	MaxWarnings int
	Force       bool

	diags    []Diagnostic
	errors   int
	warnings int
	delayed  []pending
	fatal    bool
}

type pending struct {
	code    int
	class   Class
	message string
}

// NewSink returns a Sink with sensible default maxima (matching the
// teacher's compiler driver default of not drowning the user in errors).
func NewSink() *Sink {
	return &Sink{MaxErrors: 10000, MaxWarnings: 10000}
}

// Report records a diagnostic at loc, unless the severity's maximum has
// already been reached (and Force is not set).
func (s *Sink) Report(sev Severity, code int, class Class, loc Location, format string, args ...interface{}) {
	if !s.Force {
		if sev == Error && s.errors >= s.MaxErrors {
			return
		}
		if sev == Warning && s.warnings >= s.MaxWarnings {
			return
		}
	}
	d := Diagnostic{Severity: sev, Code: code, Class: class, File: loc.File, Line: loc.Line, Col: loc.Col, Message: fmt.Sprintf(format, args...)}
	s.diags = append(s.diags, d)
	if sev == Error {
		s.errors++
	} else {
		s.warnings++
	}
}

// Errorf reports a semantic/syntax error at loc.
func (s *Sink) Errorf(class Class, loc Location, format string, args ...interface{}) {
	s.Report(Error, 0, class, loc, format, args...)
}

// Fatalf reports an internal invariant violation and marks the sink fatal;
// the driver is expected to abandon compilation once Fatal() is true.
func (s *Sink) Fatalf(format string, args ...interface{}) {
	s.Report(Error, 9999, ClassInternal, Location{}, format, args...)
	s.fatal = true
}

// Fatal reports whether an internal error has been raised.
func (s *Sink) Fatal() bool { return s.fatal }

// Delay queues a diagnostic that was discovered without a usable source
// location; the next call to Flush attaches it to the supplied location.
func (s *Sink) Delay(code int, class Class, format string, args ...interface{}) {
	s.delayed = append(s.delayed, pending{code: code, class: class, message: fmt.Sprintf(format, args...)})
}

// Flush attaches every delayed diagnostic to loc and reports it, then clears
// the delay queue (spec §7: "the next print operation flushes queued
// messages, attaching them to the current location context").
func (s *Sink) Flush(loc Location) {
	for _, p := range s.delayed {
		s.Report(Error, p.code, p.class, loc, "%s", p.message)
	}
	s.delayed = s.delayed[:0]
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (s *Sink) Diagnostics() []Diagnostic { return s.diags }

// Counts returns the running error and warning counts.
func (s *Sink) Counts() (errors, warnings int) { return s.errors, s.warnings }
