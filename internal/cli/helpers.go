package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/headline-goat/variant-chrome/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

func getTest(ctx context.Context, s *store.SQLiteStore, name string) (*store.TestDefinition, error) {
	test, err := s.GetTest(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("test '%s' not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return test, nil
}

// findVariant matches ref against a variant index, name, GUID or short ID.
func findVariant(variable store.Variable, ref string) (store.Variant, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(variable.Variants) {
			return store.Variant{}, fmt.Errorf("invalid variant index: %d (test has %d variants: 0-%d)",
				i, len(variable.Variants), len(variable.Variants)-1)
		}
		return variable.Variants[i], nil
	}

	for _, variant := range variable.Variants {
		if strings.EqualFold(variant.Name, ref) ||
			strings.EqualFold(variant.ID.String(), ref) ||
			strings.EqualFold(variant.ShortID(), ref) {
			return variant, nil
		}
	}
	return store.Variant{}, fmt.Errorf("variant '%s' not found", ref)
}

// promptVariant asks which variant to use when none was given.
func promptVariant(label string, variable store.Variable) (store.Variant, error) {
	names := make([]string, len(variable.Variants))
	for i, variant := range variable.Variants {
		names[i] = variant.Name
	}

	prompt := promptui.Select{
		Label: label,
		Items: names,
		Size:  5,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return store.Variant{}, err
	}
	return variable.Variants[idx], nil
}

// tokenFilePath returns the token file stored alongside the database
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(cfg.DBPath), ".vchrome-token")
}
