package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/headline-goat/variant-chrome/internal/variations"
)

// resetFlags restores every flag in the command tree to its default so
// values from one Execute do not carry into the next.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset flag %s: %v", f.Name, err)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(t, sub)
	}
}

func run(t *testing.T, db string, args ...string) string {
	t.Helper()

	resetFlags(t, rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--db", db}, args...))

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("vchrome %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func runErr(t *testing.T, db string, args ...string) error {
	t.Helper()

	resetFlags(t, rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--db", db}, args...))
	return rootCmd.Execute()
}

func chromeVariations(t *testing.T, out string) []variations.Descriptor {
	t.Helper()

	var data struct {
		Custom map[string][]variations.Descriptor `json:"custom"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("invalid chrome data: %v\n%s", err, out)
	}
	return data.Custom[variations.CustomKey]
}

func TestWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")

	out := run(t, db, "create", "hero", "--variants", "Ship Faster, Build Better, Go Now")
	for _, expected := range []string{"Created test 'hero' with 3 variants", "0: Ship Faster", "Binding:"} {
		if !strings.Contains(out, expected) {
			t.Errorf("create output missing %q\n\nGot:\n%s", expected, out)
		}
	}

	out = run(t, db, "list")
	if !strings.Contains(out, "hero") || !strings.Contains(out, "RUNNING") {
		t.Errorf("list output missing test\n\nGot:\n%s", out)
	}

	// Not active for any language yet
	out = run(t, db, "variations", "hero", "--language", "en", "--device", "default")
	if list := chromeVariations(t, out); len(list) != 0 {
		t.Fatalf("expected no variations before activation, got %d", len(list))
	}

	run(t, db, "activate", "hero", "--language", "en", "--variant", "1")
	run(t, db, "configure", "hero", "--device", "default")
	run(t, db, "track", "hero", "--variant", "0", "--event", "view", "--visitor", "v1", "--device", "default", "--value", "0")
	run(t, db, "track", "hero", "--variant", "Ship Faster", "--event", "convert", "--visitor", "v1", "--device", "default", "--value", "0")
	run(t, db, "track", "hero", "--variant", "1", "--event", "view", "--visitor", "v2", "--device", "default", "--value", "0")

	list := chromeVariations(t, run(t, db, "variations", "hero", "--language", "en", "--device", "default"))
	if len(list) != 3 {
		t.Fatalf("got %d variations, want 3", len(list))
	}
	if !list[1].IsActive || list[0].IsActive || list[2].IsActive {
		t.Errorf("expected only variant 1 active, got %+v", list)
	}
	if list[0].Score == nil || *list[0].Score != 1 {
		t.Errorf("expected variant 0 score 1, got %v", list[0].Score)
	}
	if list[1].Score == nil || *list[1].Score != 0 {
		t.Errorf("expected variant 1 score 0, got %v", list[1].Score)
	}

	out = run(t, db, "results", "hero", "--language", "en", "--device", "default")
	for _, expected := range []string{"TEST: hero", "← ACTIVE", "Ship Faster"} {
		if !strings.Contains(out, expected) {
			t.Errorf("results output missing %q\n\nGot:\n%s", expected, out)
		}
	}

	run(t, db, "stop", "hero")
	list = chromeVariations(t, run(t, db, "variations", "hero", "--language", "en", "--device", "default"))
	for _, d := range list {
		if d.Score != nil {
			t.Errorf("stopped test should not carry scores, got %+v", d)
		}
	}

	out = run(t, db, "export", "hero", "--format", "csv")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 4 {
		t.Errorf("got %d csv lines, want header + 3 events\n%s", len(lines), out)
	}
}

func TestTrack_FlagsDoNotCarryOver(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	run(t, db, "create", "hero", "--variants", "A,B")

	run(t, db, "track", "hero", "--variant", "0", "--event", "convert", "--visitor", "v1", "--device", "tablet", "--value", "5")
	run(t, db, "track", "hero", "--variant", "0", "--event", "convert", "--visitor", "v2")

	var export jsonExport
	if err := json.Unmarshal([]byte(run(t, db, "export", "hero", "--format", "json")), &export); err != nil {
		t.Fatalf("invalid export: %v", err)
	}
	if len(export.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(export.Events))
	}
	for _, e := range export.Events {
		if e.VisitorID != "v2" {
			continue
		}
		if e.Value != 1 {
			t.Errorf("v2 value = %v, want default 1", e.Value)
		}
		if e.DeviceID != "default" {
			t.Errorf("v2 device = %q, want default", e.DeviceID)
		}
	}
}

func TestActivate_InvalidVariant(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	run(t, db, "create", "cta", "--variants", "A,B")

	if err := runErr(t, db, "activate", "cta", "--language", "en", "--variant", "7"); err == nil {
		t.Error("expected error for out of range variant")
	}
	if err := runErr(t, db, "activate", "cta", "--language", "??", "--variant", "0"); err == nil {
		t.Error("expected error for invalid language")
	}
}

func TestCreate_NeedsTwoVariants(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")

	if err := runErr(t, db, "create", "solo", "--variants", "A"); err == nil {
		t.Error("expected error for a single variant")
	}
}

func TestResults_NotConfigured(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")
	run(t, db, "create", "hero", "--variants", "A,B")

	if err := runErr(t, db, "results", "hero", "--language", "en", "--device", "tablet"); err == nil {
		t.Error("expected error for unconfigured device")
	}
}
