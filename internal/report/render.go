// Package report renders scan results for the CLI in table, csv, json,
// and yaml formats.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Render writes one scan result to w in the requested format.
func Render(w io.Writer, result *pipeline.Result, format string) error {
	switch format {
	case FormatTable:
		return renderTable(w, result)
	case FormatCSV:
		return renderCSV(w, result)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, result *pipeline.Result) error {
	fmt.Fprintf(w, "Scan %s  strategy=%s  cutoff=%s  date=%s\n",
		result.RunID, result.Strategy, result.Cutoff, result.ScanDate.Format("2006-01-02"))
	if result.Partial {
		fmt.Fprintln(w, "WARNING: scan cancelled mid-flight, results are partial")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tSCORE\tCHG%\tRELVOL\tRSI\tSIGNAL\tRISK")
	for i, c := range result.Candidates {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%+.2f\t%.2fx\t%.1f\t%s\t%s\n",
			i+1, c.Symbol, c.CompositeScore,
			c.Snapshot.PriceChangePct, c.Snapshot.RelativeVolume, c.Snapshot.RSI,
			c.Signal, c.Risk)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(result.Exclusions) > 0 {
		fmt.Fprintf(w, "\nExcluded %d symbols:\n", len(result.Exclusions))
		ew := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, ex := range result.Exclusions {
			fmt.Fprintf(ew, "  %s\t%s\t%s\n", ex.Symbol, ex.Reason, ex.Detail)
		}
		if err := ew.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func renderCSV(w io.Writer, result *pipeline.Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"rank", "symbol", "composite_score",
		"volume_score", "momentum_score", "volatility_score", "liquidity_score", "rule_bonus",
		"price_change_pct", "relative_volume", "rsi", "signal", "risk",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, c := range result.Candidates {
		row := []string{
			strconv.Itoa(i + 1),
			c.Symbol,
			formatFloat(c.CompositeScore),
			formatFloat(c.VolumeScore),
			formatFloat(c.MomentumScore),
			formatFloat(c.VolatilityScore),
			formatFloat(c.LiquidityScore),
			formatFloat(c.RuleBonus),
			formatFloat(c.Snapshot.PriceChangePct),
			formatFloat(c.Snapshot.RelativeVolume),
			formatFloat(c.Snapshot.RSI),
			string(c.Signal),
			string(c.Risk),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
