package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventView    EventType = "view"
	EventConvert EventType = "convert"
)

// Variant is one candidate presentation of a tested variable.
type Variant struct {
	ID   uuid.UUID
	Name string
}

// ShortID is the compact form of the variant ID: upper-case hex, no dashes.
func (v Variant) ShortID() string {
	return ShortID(v.ID)
}

// ShortID renders id as 32 upper-case hex digits.
func ShortID(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}

// Variable is the tested dimension of a rendering and its ordered variants.
type Variable struct {
	Name     string
	Variants []Variant
}

// Has reports whether id belongs to the variable.
func (v Variable) Has(id uuid.UUID) bool {
	for _, variant := range v.Variants {
		if variant.ID == id {
			return true
		}
	}
	return false
}

type TestDefinition struct {
	ID        uuid.UUID
	Name      string
	IsRunning bool
	Variable  Variable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TestValue is the binding of a test for one language: the variable's
// variants plus the one currently active.
type TestValue struct {
	Test            *TestDefinition
	Language        string
	ActiveVariantID uuid.UUID
}

// Variable returns the owning variable of the value.
func (tv *TestValue) Variable() Variable {
	if tv == nil || tv.Test == nil {
		return Variable{}
	}
	return tv.Test.Variable
}

// TestConfiguration is the device-scoped runtime snapshot of a running test.
type TestConfiguration struct {
	Test      *TestDefinition
	DeviceID  string
	StartedAt time.Time
}

type Event struct {
	ID        int64
	TestID    uuid.UUID
	VariantID uuid.UUID
	EventType EventType
	VisitorID string
	DeviceID  string
	Value     float64 // engagement points, convert events only
	CreatedAt time.Time
}

// VariantStats is the aggregated engagement of one variant.
type VariantStats struct {
	VariantID   uuid.UUID
	Views       int
	Conversions int
	Value       float64
}
