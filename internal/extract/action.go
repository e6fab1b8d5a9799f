package extract

import (
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/typextract/internal/frontend"
	"github.com/rohankatakam/typextract/internal/plugin"
	"github.com/rohankatakam/typextract/internal/sink"
)

// PluginName is the name the extractor is registered under.
const PluginName = "type-extractor"

func init() {
	plugin.Register(PluginName, "extract type information from CXX headers", func(host plugin.Host, args []string) (frontend.Action, error) {
		a := NewAction(host.Out, host.Logger)
		if err := a.ParseArgs(args); err != nil {
			return nil, err
		}
		return a, nil
	})
}

// Action runs the extractor on each translation unit the front-end builds.
type Action struct {
	out    sink.Sink
	logger *logrus.Logger
}

// NewAction creates an action writing to out.
func NewAction(out sink.Sink, logger *logrus.Logger) *Action {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Action{out: out, logger: logger}
}

// ParseArgs accepts and ignores plugin arguments; the extractor has none.
func (a *Action) ParseArgs(args []string) error {
	if len(args) > 0 {
		a.logger.WithField("args", args).Debug("Ignoring plugin arguments")
	}
	return nil
}

// NewConsumer starts a fresh session keyed to the compilation's sysroot and
// resource directory.
func (a *Action) NewConsumer(ci *frontend.CompilerInstance) (frontend.Consumer, error) {
	session := NewSession(ci.Options.Sysroot, ci.Options.ResourceDir)
	return NewExtractor(session, a.out, a.logger), nil
}
