package variations

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/language"
	"github.com/headline-goat/variant-chrome/internal/store"
)

// Selector finds the test value bound to a rendering for a language.
type Selector struct {
	lookup store.TestValueLookup
	logger *zap.Logger
}

func NewSelector(lookup store.TestValueLookup, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{lookup: lookup, logger: logger}
}

// GetTestValue returns the bound value, or false when the rendering is not
// tested in lang. Lookup failures are reported as not found.
func (s *Selector) GetTestValue(ctx context.Context, slot *chrome.RenderingSlot, lang language.Language) (*store.TestValue, bool) {
	if slot == nil || slot.TestBindingID == "" || lang.IsInvariant() || s.lookup == nil {
		return nil, false
	}

	tv, err := s.lookup.GetTestValue(ctx, slot.TestBindingID, lang.String())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("no test value for language",
				zap.String("binding", slot.TestBindingID), zap.Stringer("language", lang))
		} else {
			s.logger.Warn("test value lookup failed",
				zap.String("binding", slot.TestBindingID), zap.Stringer("language", lang), zap.Error(err))
		}
		return nil, false
	}
	if tv == nil || tv.Test == nil {
		return nil, false
	}

	if !tv.Variable().Has(tv.ActiveVariantID) {
		s.logger.Warn("active variant is not part of the test",
			zap.String("test", tv.Test.Name), zap.Stringer("variant", tv.ActiveVariantID))
		return nil, false
	}

	return tv, true
}
