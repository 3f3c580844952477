package store

import (
	"context"

	"github.com/google/uuid"
)

// TestValueLookup finds the test value bound to a rendering for a language.
type TestValueLookup interface {
	GetTestValue(ctx context.Context, bindingID string, lang string) (*TestValue, error)
}

// ConfigurationStore loads the runtime configuration of a test for a device.
// A test that is not configured for the device yields (nil, nil).
type ConfigurationStore interface {
	LoadTest(ctx context.Context, test *TestDefinition, deviceID string) (*TestConfiguration, error)
}

// EngagementSource aggregates recorded events of a configured test.
type EngagementSource interface {
	VariantEngagement(ctx context.Context, cfg *TestConfiguration) ([]VariantStats, error)
}

// Store defines the interface for test storage operations
type Store interface {
	TestValueLookup
	ConfigurationStore
	EngagementSource

	// Test operations
	CreateTest(ctx context.Context, name, variable string, variants []string) (*TestDefinition, error)
	GetTest(ctx context.Context, name string) (*TestDefinition, error)
	GetTestByID(ctx context.Context, id uuid.UUID) (*TestDefinition, error)
	ListTests(ctx context.Context) ([]*TestDefinition, error)
	SetRunning(ctx context.Context, name string, running bool) error
	SetActiveVariant(ctx context.Context, testID uuid.UUID, lang string, variantID uuid.UUID) error
	SaveConfiguration(ctx context.Context, testID uuid.UUID, deviceID string) (*TestConfiguration, error)
	DeleteTest(ctx context.Context, name string) error

	// Event operations
	RecordEvent(ctx context.Context, e Event) error
	GetEvents(ctx context.Context, testID uuid.UUID) ([]*Event, error)

	// Lifecycle
	Close() error
}
