package extract

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/typextract/internal/cdecl"
	"github.com/rohankatakam/typextract/internal/sink"
)

// Extractor visits every typedef, record, enum and function of a translation
// unit and emits the eligible ones.
type Extractor struct {
	session *Session
	out     sink.Sink
	logger  *logrus.Logger
}

// NewExtractor creates an extractor that owns session for one translation
// unit.
func NewExtractor(session *Session, out sink.Sink, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Extractor{session: session, out: out, logger: logger}
}

// Session returns the extractor's session.
func (x *Extractor) Session() *Session {
	return x.session
}

// HandleTranslationUnit walks tu in source order. Declarations already
// emitted as dependencies are not repeated.
func (x *Extractor) HandleTranslationUnit(ctx context.Context, tu *cdecl.TranslationUnit) error {
	start := time.Now()
	emitter := NewEmitter(x.session, x.out, tu.Policy, x.logger)

	var walkErr error
	visited := 0
	cdecl.Walk(tu.Context, func(d *cdecl.Decl) bool {
		switch d.Kind() {
		case cdecl.KindTypedef, cdecl.KindRecord, cdecl.KindEnum, cdecl.KindFunction:
		default:
			return true
		}
		if walkErr = ctx.Err(); walkErr != nil {
			return false
		}
		visited++

		if ok, reason := Eligible(d); !ok {
			x.logger.WithFields(logrus.Fields{
				"decl_id": d.ID,
				"name":    d.Name,
				"reason":  reason,
			}).Trace("Filtered declaration")
			return true
		}
		walkErr = emitter.Emit(ctx, d)
		return walkErr == nil
	})

	x.logger.WithFields(logrus.Fields{
		"file":     tu.MainFile,
		"visited":  visited,
		"written":  emitter.Written(),
		"skipped":  emitter.Skipped(),
		"duration": time.Since(start),
	}).Debug("Extraction finished")

	return walkErr
}
