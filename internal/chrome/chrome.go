// Package chrome models the chrome-data request an authoring surface makes
// for a rendering, and the pipeline of processors that fills its response.
package chrome

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/language"
)

// TypeRendering is the chrome type of rendering requests.
const TypeRendering = "rendering"

// RenderingSlot is a rendering placed on a layout. TestBindingID is empty
// when no multivariate test is bound to it.
type RenderingSlot struct {
	ID            string
	Placeholder   string
	TestBindingID string
}

type Site struct {
	Name            string
	DefaultLanguage string
}

// Request is the per-request context the host supplies.
type Request struct {
	// QueryLanguage is the raw language override parameter, if any.
	QueryLanguage string
	// FilePathLanguage is set when the platform routed the URL to a
	// language-specific item path.
	FilePathLanguage *language.Language
	Site             Site
	Preferences      language.PreferenceStore
	DeviceID         string
}

// Data is the chrome-data response. Processors add entries to Custom.
type Data struct {
	Custom map[string]any `json:"custom"`
}

func NewData() *Data {
	return &Data{Custom: map[string]any{}}
}

type Args struct {
	ChromeType string
	Rendering  *RenderingSlot
	Request    Request
	Data       *Data
}

type Processor interface {
	Process(ctx context.Context, args *Args)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, args *Args)

func (f ProcessorFunc) Process(ctx context.Context, args *Args) {
	f(ctx, args)
}

// Pipeline runs processors in order. A panicking processor is logged and
// skipped; the pipeline always completes unless ctx is done.
type Pipeline struct {
	processors []Processor
	logger     *zap.Logger
}

func NewPipeline(logger *zap.Logger, processors ...Processor) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{processors: processors, logger: logger}
}

func (p *Pipeline) Run(ctx context.Context, args *Args) *Data {
	if args.Data == nil {
		args.Data = NewData()
	}
	if args.Data.Custom == nil {
		args.Data.Custom = map[string]any{}
	}

	for i, proc := range p.processors {
		if ctx.Err() != nil {
			break
		}
		if err := p.runOne(ctx, proc, args); err != nil {
			p.logger.Error("chrome processor failed", zap.Int("index", i), zap.Error(err))
		}
	}

	return args.Data
}

func (p *Pipeline) runOne(ctx context.Context, proc Processor, args *Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	proc.Process(ctx, args)
	return nil
}
