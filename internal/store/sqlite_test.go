package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func setupTestDB(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func createHero(t *testing.T, s *store.SQLiteStore) *store.TestDefinition {
	t.Helper()

	test, err := s.CreateTest(context.Background(), "hero", "Headline", []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("failed to create test: %v", err)
	}
	return test
}

func TestCreateTest(t *testing.T) {
	s := setupTestDB(t)
	test := createHero(t, s)

	if test.Name != "hero" {
		t.Errorf("got Name %s, want hero", test.Name)
	}
	if !test.IsRunning {
		t.Error("expected new test to be running")
	}
	if len(test.Variable.Variants) != 3 {
		t.Errorf("got %d variants, want 3", len(test.Variable.Variants))
	}
	if test.ID == uuid.Nil {
		t.Error("expected non-nil ID")
	}
}

func TestCreateTest_DuplicateName(t *testing.T) {
	s := setupTestDB(t)
	createHero(t, s)

	_, err := s.CreateTest(context.Background(), "hero", "Headline", []string{"X", "Y"})
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestGetTest_PreservesVariantOrder(t *testing.T) {
	s := setupTestDB(t)
	created := createHero(t, s)

	test, err := s.GetTest(context.Background(), "hero")
	if err != nil {
		t.Fatalf("failed to get test: %v", err)
	}

	for i, v := range test.Variable.Variants {
		if v.ID != created.Variable.Variants[i].ID || v.Name != created.Variable.Variants[i].Name {
			t.Errorf("variant %d: got %s/%s, want %s/%s", i, v.ID, v.Name,
				created.Variable.Variants[i].ID, created.Variable.Variants[i].Name)
		}
	}
	if test.Variable.Name != "Headline" {
		t.Errorf("got variable %s, want Headline", test.Variable.Name)
	}
}

func TestGetTest_NotFound(t *testing.T) {
	s := setupTestDB(t)

	_, err := s.GetTest(context.Background(), "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListTests(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	createHero(t, s)
	if _, err := s.CreateTest(ctx, "pricing", "Price", []string{"X", "Y"}); err != nil {
		t.Fatalf("failed to create test: %v", err)
	}

	tests, err := s.ListTests(ctx)
	if err != nil {
		t.Fatalf("failed to list tests: %v", err)
	}
	if len(tests) != 2 {
		t.Fatalf("got %d tests, want 2", len(tests))
	}
	for _, test := range tests {
		if len(test.Variable.Variants) == 0 {
			t.Errorf("test %s has no variants loaded", test.Name)
		}
	}
}

func TestSetRunning(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	createHero(t, s)

	if err := s.SetRunning(ctx, "hero", false); err != nil {
		t.Fatalf("failed to stop test: %v", err)
	}
	test, _ := s.GetTest(ctx, "hero")
	if test.IsRunning {
		t.Error("expected test to be stopped")
	}

	if err := s.SetRunning(ctx, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGetTestValue(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	test := createHero(t, s)
	b := test.Variable.Variants[1]

	if err := s.SetActiveVariant(ctx, test.ID, "en", b.ID); err != nil {
		t.Fatalf("failed to set active variant: %v", err)
	}

	tv, err := s.GetTestValue(ctx, test.ID.String(), "en")
	if err != nil {
		t.Fatalf("failed to get test value: %v", err)
	}
	if tv.ActiveVariantID != b.ID {
		t.Errorf("got active %s, want %s", tv.ActiveVariantID, b.ID)
	}
	if len(tv.Variable().Variants) != 3 {
		t.Errorf("got %d variants, want 3", len(tv.Variable().Variants))
	}

	// Languages are bound independently.
	if _, err := s.GetTestValue(ctx, test.ID.String(), "da"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for unbound language", err)
	}
	if _, err := s.GetTestValue(ctx, "not-a-guid", "en"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for malformed binding", err)
	}
}

func TestSetActiveVariant_Replaces(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	test := createHero(t, s)

	_ = s.SetActiveVariant(ctx, test.ID, "en", test.Variable.Variants[0].ID)
	if err := s.SetActiveVariant(ctx, test.ID, "en", test.Variable.Variants[2].ID); err != nil {
		t.Fatalf("failed to replace active variant: %v", err)
	}

	tv, _ := s.GetTestValue(ctx, test.ID.String(), "en")
	if tv.ActiveVariantID != test.Variable.Variants[2].ID {
		t.Errorf("got active %s, want variant C", tv.ActiveVariantID)
	}
}

func TestSetActiveVariant_ForeignVariant(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	hero := createHero(t, s)
	other, _ := s.CreateTest(ctx, "pricing", "Price", []string{"X", "Y"})

	err := s.SetActiveVariant(ctx, hero.ID, "en", other.Variable.Variants[0].ID)
	if !errors.Is(err, store.ErrInvalidVariant) {
		t.Errorf("got %v, want ErrInvalidVariant", err)
	}

	err = s.SetActiveVariant(ctx, hero.ID, "en", uuid.New())
	if !errors.Is(err, store.ErrInvalidVariant) {
		t.Errorf("got %v, want ErrInvalidVariant for unknown variant", err)
	}
}

func TestLoadTest(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	test := createHero(t, s)

	cfg, err := s.LoadTest(ctx, test, "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil configuration before provisioning")
	}

	saved, err := s.SaveConfiguration(ctx, test.ID, "default")
	if err != nil {
		t.Fatalf("failed to save configuration: %v", err)
	}

	cfg, err = s.LoadTest(ctx, test, "default")
	if err != nil || cfg == nil {
		t.Fatalf("expected configuration, got %v, %v", cfg, err)
	}
	if !cfg.StartedAt.Equal(saved.StartedAt) {
		t.Errorf("got start %v, want %v", cfg.StartedAt, saved.StartedAt)
	}

	other, _ := s.LoadTest(ctx, test, "mobile")
	if other != nil {
		t.Error("expected no configuration for a different device")
	}
}

func TestVariantEngagement(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	test := createHero(t, s)
	cfg, err := s.SaveConfiguration(ctx, test.ID, "default")
	if err != nil {
		t.Fatalf("failed to save configuration: %v", err)
	}
	a, b := test.Variable.Variants[0], test.Variable.Variants[1]

	record := func(variant store.Variant, typ store.EventType, visitor, device string, value float64) {
		t.Helper()
		err := s.RecordEvent(ctx, store.Event{
			TestID: test.ID, VariantID: variant.ID, EventType: typ,
			VisitorID: visitor, DeviceID: device, Value: value,
		})
		if err != nil {
			t.Fatalf("failed to record event: %v", err)
		}
	}

	record(a, store.EventView, "v1", "default", 0)
	record(a, store.EventView, "v2", "default", 0)
	record(a, store.EventConvert, "v1", "default", 5)
	record(b, store.EventView, "v3", "default", 0)
	record(b, store.EventView, "v3", "default", 0) // duplicate
	record(b, store.EventView, "v4", "mobile", 0)  // other device

	stats, err := s.VariantEngagement(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to get engagement: %v", err)
	}

	byVariant := make(map[uuid.UUID]store.VariantStats)
	for _, st := range stats {
		byVariant[st.VariantID] = st
	}

	if got := byVariant[a.ID]; got.Views != 2 || got.Conversions != 1 || got.Value != 5 {
		t.Errorf("variant A: got %+v", got)
	}
	if got := byVariant[b.ID]; got.Views != 1 || got.Conversions != 0 {
		t.Errorf("variant B: got %+v", got)
	}
	if _, ok := byVariant[test.Variable.Variants[2].ID]; ok {
		t.Error("variant C has no events and should be absent")
	}
}

func TestRecordEvent_InvalidType(t *testing.T) {
	s := setupTestDB(t)
	test := createHero(t, s)

	err := s.RecordEvent(context.Background(), store.Event{
		TestID: test.ID, VariantID: test.Variable.Variants[0].ID, EventType: "click", VisitorID: "v1",
	})
	if err == nil {
		t.Fatal("expected error for invalid event type")
	}
}

func TestGetEvents_CorruptVariantID(t *testing.T) {
	s := setupTestDB(t)
	test := createHero(t, s)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx,
		`INSERT INTO events (test_id, variant_id, event_type, visitor_id, device_id) VALUES (?, ?, 'view', 'v1', 'default')`,
		test.ID.String(), "not-a-uuid",
	)
	if err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	if _, err := s.GetEvents(ctx, test.ID); err == nil {
		t.Fatal("expected error for corrupt variant id")
	}
}

func TestDeleteTest(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()
	test := createHero(t, s)
	_ = s.SetActiveVariant(ctx, test.ID, "en", test.Variable.Variants[0].ID)
	_ = s.RecordEvent(ctx, store.Event{
		TestID: test.ID, VariantID: test.Variable.Variants[0].ID, EventType: store.EventView, VisitorID: "v1", DeviceID: "default",
	})

	if err := s.DeleteTest(ctx, "hero"); err != nil {
		t.Fatalf("failed to delete test: %v", err)
	}
	if _, err := s.GetTest(ctx, "hero"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after delete", err)
	}
	events, _ := s.GetEvents(ctx, test.ID)
	if len(events) != 0 {
		t.Errorf("got %d events, want 0 after delete", len(events))
	}
}

func TestShortID(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	if got := store.ShortID(id); got != "0F8FAD5BD9CB469FA16570867728950E" {
		t.Errorf("got %s", got)
	}
}
