// Package output renders analytics results for the command line.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iwvelando/contract-analytics/internal/analytics"
	"github.com/iwvelando/contract-analytics/pkg/constants"
	"github.com/iwvelando/contract-analytics/pkg/format"
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Series kinds in CSV output.
const (
	KindHistorical = "historical"
	KindProjected  = "projected"
)

// Write renders res to w in the named format.
func Write(w io.Writer, outputFormat string, res analytics.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return Pretty(w, res)
	case constants.OutputFormatCSV:
		return CSV(w, res)
	case constants.OutputFormatJSON:
		return JSON(w, res)
	default:
		return eris.Errorf("output: unknown format %q", outputFormat)
	}
}

// Pretty outputs a human-readable rather than machine-readable report.
func Pretty(w io.Writer, res analytics.Result) error {
	p := message.NewPrinter(language.English)
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = p.Fprintf(tw, "--- Overview (%s) ---\n", res.GeneratedAt.Format(time.RFC3339))
	_, _ = p.Fprintf(tw, "Contracts\t%d\n", res.Stats.Total)
	_, _ = p.Fprintf(tw, "Total value\t%s\n", format.Currency(res.Stats.TotalValue))
	_, _ = p.Fprintf(tw, "Average value\t%s\n", format.Currency(res.Stats.AverageValue))
	_, _ = p.Fprintf(tw, "Dropped records\t%d\n", res.Normalization.Dropped())
	for _, b := range res.Stats.Expiring.Buckets {
		_, _ = p.Fprintf(tw, "Expiring in %d days\t%d\n", b.Days, b.Count)
	}
	_, _ = fmt.Fprintf(tw, "Health\t%s\n", res.Stats.Health.Status)
	for _, issue := range res.Stats.Health.Issues {
		_, _ = fmt.Fprintf(tw, "\t- %s\n", issue)
	}

	_, _ = fmt.Fprintf(tw, "\n--- Spending ---\n")
	_, _ = fmt.Fprintf(tw, "Total spend\t%s\n", format.Currency(res.Spend.TotalSpend))
	for _, c := range res.Spend.ByCategory {
		_, _ = p.Fprintf(tw, "  %s\t%s\t%d%%\t%d contracts\n", c.Category, format.Currency(c.Amount), c.Percentage, c.Count)
	}
	for _, v := range res.Spend.ByVendor {
		name := v.VendorName
		if name == "" {
			name = v.VendorID
		}
		_, _ = p.Fprintf(tw, "  %s\t%s\t%d%%\t%d contracts\n", name, format.Currency(v.Amount), v.Percentage, v.Count)
	}
	if len(res.Spend.Opportunities) > 0 {
		_, _ = fmt.Fprintf(tw, "Savings opportunities\t%s\n", format.Currency(res.Spend.TotalPotentialSavings()))
		for _, o := range res.Spend.Opportunities {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", o.Kind, format.Currency(o.PotentialSavings), o.Description)
		}
	}

	_, _ = fmt.Fprintf(tw, "\n--- Risks ---\n")
	_, _ = p.Fprintf(tw, "Overall\t%.2f (%s)\n", res.Risk.Overall, res.Risk.Level)
	for _, f := range res.Risk.Factors {
		_, _ = p.Fprintf(tw, "  %s\t%.2f\tweight %.2f\n", f.Name, f.Score, f.Weight)
	}
	if res.Risk.Dominant != "" {
		_, _ = fmt.Fprintf(tw, "Dominant factor\t%s\n", res.Risk.Dominant)
	}
	if len(res.Risk.HighRiskVendors) > 0 {
		_, _ = fmt.Fprintf(tw, "High risk vendors\t%s\n", strings.Join(res.Risk.HighRiskVendors, ", "))
	}

	_, _ = fmt.Fprintf(tw, "\n--- Forecast ---\n")
	if res.Forecast.Projection == nil {
		_, _ = fmt.Fprintf(tw, "%s\n", res.Forecast.Error)
	} else {
		_, _ = p.Fprintf(tw, "Trend\t%s (slope %.2f, R² %.2f)\n", res.Forecast.Trend, res.Forecast.Slope, res.Forecast.Confidence)
		for _, pt := range res.Forecast.Forecast {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", pt.Month, format.Currency(pt.Value))
		}
	}

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "output: render report")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return eris.Wrap(err, "output: write report")
	}
	return nil
}

// CSV outputs the monthly spend series, historical months first, followed by
// the projected months when a forecast exists.
func CSV(w io.Writer, res analytics.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "kind", "amount"}); err != nil {
		return eris.Wrap(err, "output: write csv header")
	}
	for _, m := range res.Spend.MonthlyTrend {
		if err := cw.Write([]string{m.Month, KindHistorical, fmt.Sprintf("%.2f", m.Amount)}); err != nil {
			return eris.Wrap(err, "output: write csv row")
		}
	}
	if res.Forecast.Projection != nil {
		for _, pt := range res.Forecast.Forecast {
			if err := cw.Write([]string{pt.Month, KindProjected, fmt.Sprintf("%.2f", pt.Value)}); err != nil {
				return eris.Wrap(err, "output: write csv row")
			}
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "output: flush csv")
}

// JSON outputs the full result as indented JSON.
func JSON(w io.Writer, res analytics.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return eris.Wrap(err, "output: encode json")
	}
	return nil
}
