package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/bienesraices/internal/catalog"
	"github.com/evcraddock/bienesraices/internal/lookup"
	"github.com/evcraddock/bienesraices/internal/property"
)

// printJSON writes v as indented JSON.
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(out, "No hay propiedades.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITULO\tCATEGORIA\tPRECIO\tHAB\tEST\tWC\tCALLE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t---------\t------\t---\t---\t--\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			p.ID, truncate(p.Title, 40), refName(p.Category), refName(p.Price),
			p.Bedrooms, p.Parking, p.Bathrooms, truncate(orDash(p.Street), 30)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d propiedades\n", len(props))
	return err
}

// printMarkers prints map pins one per line.
func printMarkers(out io.Writer, markers []catalog.Marker) error {
	for _, m := range markers {
		if _, err := fmt.Fprintf(out, "#%d %.6f,%.6f %s\n", m.ID, m.Lat, m.Lng, m.Title); err != nil {
			return err
		}
	}
	return nil
}

func refName(r *lookup.Ref) string {
	if r == nil {
		return "-"
	}
	return r.Name
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
