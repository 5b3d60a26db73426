package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// WriteTableCSV writes one row per week. Absent values are empty cells.
func WriteTableCSV(out io.Writer, table model.ResultTable) error {
	w := csv.NewWriter(out)

	header := []string{
		"week_ending",
		"close",
		"window_high",
		"window_high_date",
		"window_start",
		"window_end",
		"pullback_ratio",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range table {
		row := []string{
			model.FormatDate(r.WeekEnding),
			r.Close.String(),
			fmtNullDecimal(r.WindowHigh),
			fmtNullDate(r.WindowHighDate),
			model.FormatDate(r.WindowStart),
			model.FormatDate(r.WindowEnd),
			fmtNullDecimal(r.PullbackRatio),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteProfileCSV writes one row per bin with its price bounds and volume.
func WriteProfileCSV(out io.Writer, p model.VolumeProfile) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"bin", "price_low", "price_high", "volume"}); err != nil {
		return err
	}
	for i, v := range p.Volumes {
		row := []string{
			strconv.Itoa(i),
			p.Edges[i].String(),
			p.Edges[i+1].String(),
			v.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func fmtNullDate(t null.Time) string {
	if !t.Valid {
		return ""
	}
	return model.FormatDate(t.Time)
}
