// Package variations reports the multivariate test variants of a rendering
// to the authoring surface's chrome data, annotated with live engagement
// scores while the test runs.
package variations

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/engagement"
	"github.com/headline-goat/variant-chrome/internal/language"
	"github.com/headline-goat/variant-chrome/internal/store"
)

// CustomKey is the chrome-data key the variant list is added under.
const CustomKey = "testVariations"

type Settings struct {
	// AutomaticTestingEnabled gates the processor entirely.
	AutomaticTestingEnabled bool
	// DefaultDevice is used when the request carries no device.
	DefaultDevice string
}

// ScoreEngine computes engagement scores for a test configuration.
type ScoreEngine interface {
	Score(ctx context.Context, cfg *store.TestConfiguration) *engagement.ScoreProvider
}

type Processor struct {
	settings       Settings
	selector       *Selector
	configurations store.ConfigurationStore
	engine         ScoreEngine
	logger         *zap.Logger
}

var _ chrome.Processor = (*Processor)(nil)

func NewProcessor(settings Settings, values store.TestValueLookup, configurations store.ConfigurationStore, engine ScoreEngine, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		settings:       settings,
		selector:       NewSelector(values, logger),
		configurations: configurations,
		engine:         engine,
		logger:         logger,
	}
}

func (p *Processor) Process(ctx context.Context, args *chrome.Args) {
	if !p.settings.AutomaticTestingEnabled {
		processed.WithLabelValues(outcomeDisabled).Inc()
		return
	}
	if args == nil || !strings.EqualFold(args.ChromeType, chrome.TypeRendering) {
		processed.WithLabelValues(outcomeSkipped).Inc()
		return
	}
	if args.Rendering == nil || args.Rendering.TestBindingID == "" {
		processed.WithLabelValues(outcomeSkipped).Inc()
		return
	}

	list := p.ProcessTestingRendering(ctx, args.Rendering, args.Request)
	if len(list) == 0 {
		return
	}

	if args.Data == nil {
		args.Data = chrome.NewData()
	}
	if args.Data.Custom == nil {
		args.Data.Custom = map[string]any{}
	}
	args.Data.Custom[CustomKey] = list
}

// ProcessTestingRendering resolves the variant list for a tested rendering.
// It returns nil when no variation applies.
func (p *Processor) ProcessTestingRendering(ctx context.Context, rendering *chrome.RenderingSlot, req chrome.Request) []Descriptor {
	if ctx.Err() != nil {
		return nil
	}

	lang, ok := language.Resolve(
		language.FromQuery(req.QueryLanguage),
		language.FromFilePath(req.FilePathLanguage),
		language.FromPreference(req.Preferences, req.Site.Name, req.Site.DefaultLanguage),
	)
	if !ok {
		processed.WithLabelValues(outcomeNoLanguage).Inc()
		p.logger.Debug("no content language resolved", zap.String("rendering", rendering.ID))
		return nil
	}

	tv, ok := p.selector.GetTestValue(ctx, rendering, lang)
	if !ok {
		processed.WithLabelValues(outcomeNoValue).Inc()
		return nil
	}

	var scorer Scorer
	if provider := p.scores(ctx, tv, p.device(req)); provider != nil {
		scorer = provider
	}

	list := Assemble(tv, scorer)
	switch {
	case len(list) == 0:
		processed.WithLabelValues(outcomeEmpty).Inc()
		return nil
	case scorer != nil:
		processed.WithLabelValues(outcomeScored).Inc()
	default:
		processed.WithLabelValues(outcomeListed).Inc()
	}
	return list
}

// scores returns nil unless the test is running and configured for device.
func (p *Processor) scores(ctx context.Context, tv *store.TestValue, device string) *engagement.ScoreProvider {
	if !tv.Test.IsRunning || p.configurations == nil || p.engine == nil {
		return nil
	}

	cfg, err := p.configurations.LoadTest(ctx, tv.Test, device)
	if err != nil {
		configurationFailures.Inc()
		p.logger.Warn("test configuration load failed, skipping scores",
			zap.String("test", tv.Test.Name), zap.String("device", device), zap.Error(err))
		return nil
	}
	if cfg == nil {
		p.logger.Debug("test not configured for device",
			zap.String("test", tv.Test.Name), zap.String("device", device))
		return nil
	}

	return p.engine.Score(ctx, cfg)
}

func (p *Processor) device(req chrome.Request) string {
	if req.DeviceID != "" {
		return req.DeviceID
	}
	return p.settings.DefaultDevice
}
