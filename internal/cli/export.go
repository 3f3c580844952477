package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-chrome/internal/store"
)

func init() {
	rootCmd.AddCommand(newExportCmd())
}

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Export raw event data",
		Long: `Export raw event data in CSV or JSON format.

Examples:
  vchrome export hero --format csv > hero-data.csv
  vchrome export hero --format json > hero-data.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("invalid format: must be 'csv' or 'json'")
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := getTest(ctx, s, args[0])
				if err != nil {
					return err
				}

				events, err := s.GetEvents(ctx, test.ID)
				if err != nil {
					return fmt.Errorf("failed to get events: %w", err)
				}

				names := make(map[string]string, len(test.Variable.Variants))
				for _, v := range test.Variable.Variants {
					names[v.ID.String()] = v.Name
				}

				if format == "csv" {
					return exportCSV(cmd.OutOrStdout(), events, names)
				}
				return exportJSON(cmd.OutOrStdout(), events, names)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")
	return cmd
}

func exportCSV(out io.Writer, events []*store.Event, names map[string]string) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"timestamp", "variant_id", "variant", "event_type", "visitor_id", "device_id", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range events {
		row := []string{
			strconv.FormatInt(e.CreatedAt.Unix(), 10),
			e.VariantID.String(),
			names[e.VariantID.String()],
			string(e.EventType),
			e.VisitorID,
			e.DeviceID,
			strconv.FormatFloat(e.Value, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	Timestamp int64   `json:"timestamp"`
	VariantID string  `json:"variant_id"`
	Variant   string  `json:"variant"`
	EventType string  `json:"event_type"`
	VisitorID string  `json:"visitor_id"`
	DeviceID  string  `json:"device_id"`
	Value     float64 `json:"value"`
}

func exportJSON(out io.Writer, events []*store.Event, names map[string]string) error {
	export := jsonExport{Events: make([]jsonEvent, len(events))}

	for i, e := range events {
		export.Events[i] = jsonEvent{
			Timestamp: e.CreatedAt.Unix(),
			VariantID: e.VariantID.String(),
			Variant:   names[e.VariantID.String()],
			EventType: string(e.EventType),
			VisitorID: e.VisitorID,
			DeviceID:  e.DeviceID,
			Value:     e.Value,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
