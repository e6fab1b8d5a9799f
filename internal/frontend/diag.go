package frontend

import (
	"fmt"
	"io"
	"sync"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/sirupsen/logrus"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal error"
	default:
		return "error"
	}
}

// Diagnostic is one message about the input.
type Diagnostic struct {
	Severity Severity
	Loc      cdecl.Location
	Message  string
}

func (d Diagnostic) String() string {
	if d.Loc.Valid() {
		return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Diagnostics prints and counts diagnostics for one invocation.
type Diagnostics struct {
	mu       sync.Mutex
	out      io.Writer
	logger   *logrus.Logger
	noWarn   bool
	werror   bool
	list     []Diagnostic
	errors   int
	warnings int
	fatal    bool
}

// NewDiagnostics writes diagnostics to out. A nil out only records them.
func NewDiagnostics(out io.Writer, opts *Options, logger *logrus.Logger) *Diagnostics {
	d := &Diagnostics{out: out, logger: logger}
	if opts != nil {
		d.noWarn = opts.SuppressWarnings
		d.werror = opts.WarningsAsErrors
	}
	return d
}

// Report records a diagnostic at loc.
func (d *Diagnostics) Report(sev Severity, loc cdecl.Location, format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if sev == SeverityWarning {
		if d.noWarn {
			return
		}
		if d.werror {
			sev = SeverityError
		}
	}
	diag := Diagnostic{Severity: sev, Loc: loc, Message: fmt.Sprintf(format, args...)}
	d.list = append(d.list, diag)

	switch sev {
	case SeverityWarning:
		d.warnings++
	case SeverityFatal:
		d.fatal = true
		d.errors++
	default:
		d.errors++
	}

	if d.out != nil {
		fmt.Fprintln(d.out, diag.String())
	}
	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{
			"severity": sev.String(),
			"location": loc.String(),
		}).Debug(diag.Message)
	}
}

func (d *Diagnostics) Errorf(loc cdecl.Location, format string, args ...any) {
	d.Report(SeverityError, loc, format, args...)
}

func (d *Diagnostics) Warnf(loc cdecl.Location, format string, args ...any) {
	d.Report(SeverityWarning, loc, format, args...)
}

func (d *Diagnostics) Fatalf(loc cdecl.Location, format string, args ...any) {
	d.Report(SeverityFatal, loc, format, args...)
}

// HasErrors reports whether any error or fatal error was recorded.
func (d *Diagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors > 0
}

// HasFatal reports whether a fatal error stopped processing.
func (d *Diagnostics) HasFatal() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fatal
}

// Counts returns the number of errors and warnings.
func (d *Diagnostics) Counts() (errors, warnings int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors, d.warnings
}

// All returns a copy of the recorded diagnostics.
func (d *Diagnostics) All() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.list...)
}

// Summary is the trailing "N errors generated." line, or "" when nothing
// was reported.
func (d *Diagnostics) Summary() string {
	errs, warns := d.Counts()
	plural := func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	switch {
	case errs > 0 && warns > 0:
		return plural(warns, "warning") + " and " + plural(errs, "error") + " generated."
	case errs > 0:
		return plural(errs, "error") + " generated."
	case warns > 0:
		return plural(warns, "warning") + " generated."
	}
	return ""
}
