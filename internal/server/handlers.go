package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/headline-goat/variant-chrome/internal/chrome"
	"github.com/headline-goat/variant-chrome/internal/language"
	"github.com/headline-goat/variant-chrome/internal/store"
)

type HealthResponse struct {
	Status        string `json:"status"`
	TestsCount    int    `json:"tests_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	tests, err := s.store.ListTests(ctx)
	if err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		s.logger.Debug("could not read database size", zap.Error(err))
	}

	writeJSON(w, HealthResponse{
		Status:        "ok",
		TestsCount:    len(tests),
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// BeaconRequest represents an incoming beacon event
type BeaconRequest struct {
	TestID    string  `json:"t"`
	VariantID string  `json:"v"`
	EventType string  `json:"e"`
	VisitorID string  `json:"vid"`
	DeviceID  string  `json:"d"`
	Value     float64 `json:"val"`
}

func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BeaconRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.TestID == "" || req.VariantID == "" || req.VisitorID == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	eventType := store.EventType(req.EventType)
	if eventType != store.EventView && eventType != store.EventConvert {
		http.Error(w, "Invalid event type", http.StatusBadRequest)
		return
	}
	if eventType == store.EventView {
		req.Value = 0
	} else if req.Value == 0 {
		req.Value = 1
	}

	testID, err := uuid.Parse(req.TestID)
	if err != nil {
		http.Error(w, "Test not found", http.StatusBadRequest)
		return
	}
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	test, err := s.store.GetTestByID(ctx, testID)
	if err != nil {
		http.Error(w, "Test not found", http.StatusBadRequest)
		return
	}
	if !test.Variable.Has(variantID) {
		http.Error(w, "Invalid variant", http.StatusBadRequest)
		return
	}
	if !test.IsRunning {
		// Stopped tests do not collect engagement
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if req.DeviceID == "" {
		req.DeviceID = r.URL.Query().Get("sc_device")
	}
	if req.DeviceID == "" {
		req.DeviceID = s.opts.DefaultDevice
	}

	err = s.store.RecordEvent(ctx, store.Event{
		TestID:    testID,
		VariantID: variantID,
		EventType: eventType,
		VisitorID: req.VisitorID,
		DeviceID:  req.DeviceID,
		Value:     req.Value,
	})
	if err != nil {
		s.logger.Error("failed to record event", zap.String("test", test.Name), zap.Error(err))
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRenderingChrome returns the chrome data of a rendering. Query
// parameters: binding (bound test), rendering, sc_lang, item_lang (the
// language the host routed the item path to) and sc_device.
func (s *Server) handleRenderingChrome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	args := RenderingArgs(r, s.opts.Site)
	data := s.pipeline.Run(r.Context(), args)
	if r.Context().Err() != nil {
		return
	}

	writeJSON(w, data)
}

// RenderingArgs builds rendering chrome arguments from an authoring request.
func RenderingArgs(r *http.Request, site chrome.Site) *chrome.Args {
	q := r.URL.Query()

	var itemLang *language.Language
	if l, ok := language.TryParse(q.Get("item_lang")); ok {
		itemLang = &l
	}

	return &chrome.Args{
		ChromeType: chrome.TypeRendering,
		Rendering: &chrome.RenderingSlot{
			ID:            q.Get("rendering"),
			Placeholder:   q.Get("placeholder"),
			TestBindingID: q.Get("binding"),
		},
		Request: chrome.Request{
			QueryLanguage:    q.Get("sc_lang"),
			FilePathLanguage: itemLang,
			Site:             site,
			Preferences:      language.CookiePreferences{Request: r},
			DeviceID:         q.Get("sc_device"),
		},
		Data: chrome.NewData(),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
