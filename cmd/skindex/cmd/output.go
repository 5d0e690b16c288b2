package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/skindex/skindex/internal/market"
)

const timeRounding = time.Millisecond

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printResultsTable(results []market.MarketResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("MARKET\tNAME\tPRICE\tDISCOUNT\tFLOAT\tAVAILABILITY\n")
	for i := range results {
		r := &results[i]

		price := "-"
		if r.Price != nil {
			price = fmt.Sprintf("%.2f %s", *r.Price, r.Currency)
		} else if r.PriceText != "" {
			price = r.PriceText
		}

		discount := "-"
		if d, ok := r.Discount(); ok {
			discount = fmt.Sprintf("%.1f%%", d)
		}

		floatVal := "-"
		if r.FloatValue != nil {
			floatVal = fmt.Sprintf("%.4f", *r.FloatValue)
		}

		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Market,
			truncate(r.Name, 48),
			price,
			discount,
			floatVal,
			r.Availability,
		)
	}
	return tw.finish()
}

func printExecutionsTable(execs []market.ProviderExecution) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("PROVIDER\tRESULTS\tDURATION\tSTATUS\n")
	for i := range execs {
		e := &execs[i]

		status := "ok"
		switch {
		case e.TimedOut:
			status = "timeout"
		case e.Error != "":
			status = "error: " + truncate(e.Error, 40)
		}

		tw.writef("%s\t%d\t%s\t%s\n",
			e.Provider,
			len(e.Results),
			e.Duration.Round(timeRounding),
			status,
		)
	}
	return tw.finish()
}

func printCandidatesList(candidates []string) error {
	for _, c := range candidates {
		if _, err := fmt.Println(c); err != nil {
			return err
		}
	}
	return nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
