package tools

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Rrens/db-assistant/internal/database"
)

// DefaultBins is the histogram bin count when none is given.
const DefaultBins = 10

// PlotHistogram renders the distribution of a numeric column to a PNG and
// returns where it was written.
func (t *Toolkit) PlotHistogram(ctx context.Context, table, column string, bins int) (string, error) {
	if bins < 1 {
		return "", invalidArgument("Error: bins must be a positive integer, got %d.", bins)
	}
	sc := scope{table: table, columns: []string{column}}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}
		cols, err := resolveColumns(info, table, column)
		if err != nil {
			return "", err
		}
		if !isNumeric(cols[0]) {
			return "", notNumeric(table, column)
		}

		col := quoteColumn(cols[0])
		query := fmt.Sprintf("SELECT %[1]s::float8 FROM %[2]s WHERE %[1]s IS NOT NULL", col, quoteTable(info))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}

		values := make([]float64, 0, len(rs.Rows))
		for _, row := range rs.Rows {
			if v, ok := toFloat(row[0]); ok && isFinite(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return fmt.Sprintf("No numeric data found in %s.%s to plot.", table, column), nil
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s Distribution", column)
		p.X.Label.Text = column
		p.Y.Label.Text = "Frequency"

		binned := HistogramBins(values, bins)
		h := &plotter.Histogram{
			Bins:      binned,
			Width:     binned[0].Max - binned[0].Min,
			FillColor: color.RGBA{R: 31, G: 119, B: 180, A: 255},
			LineStyle: plotter.DefaultLineStyle,
		}
		p.Add(h)

		path, err := t.savePlot(p, "histogram")
		if err != nil {
			return "", databaseError(err)
		}
		return fmt.Sprintf("Histogram saved as %s", path), nil
	})
}

// PlotTimeSeries renders a numeric column against a date column, in
// chronological order, to a PNG and returns where it was written.
func (t *Toolkit) PlotTimeSeries(ctx context.Context, table, dateColumn, valueColumn string) (string, error) {
	sc := scope{
		table:          table,
		columns:        []string{dateColumn, valueColumn},
		dateColumn:     dateColumn,
		numericColumns: []string{valueColumn},
	}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}
		cols, err := resolveColumns(info, table, dateColumn, valueColumn)
		if err != nil {
			return "", err
		}
		if !isDateTime(cols[0]) {
			return "", notDateTime(table, dateColumn)
		}
		if !isNumeric(cols[1]) {
			return "", notNumeric(table, valueColumn)
		}

		dateCol, valueCol := quoteColumn(cols[0]), quoteColumn(cols[1])
		query := fmt.Sprintf(`
			SELECT %[1]s, %[2]s::float8
			FROM %[3]s
			WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
			ORDER BY %[1]s ASC`, dateCol, valueCol, quoteTable(info))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}

		points := make(plotter.XYs, 0, len(rs.Rows))
		for _, row := range rs.Rows {
			ts, ok := row[0].(time.Time)
			if !ok {
				continue
			}
			v, ok := toFloat(row[1])
			if !ok || !isFinite(v) {
				continue
			}
			points = append(points, plotter.XY{X: float64(ts.Unix()), Y: v})
		}
		if len(points) == 0 {
			return fmt.Sprintf("No time series data found in %s for columns %s and %s.", table, dateColumn, valueColumn), nil
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s over Time", valueColumn)
		p.X.Label.Text = "Date"
		p.Y.Label.Text = valueColumn
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

		line, err := plotter.NewLine(points)
		if err != nil {
			return "", databaseError(err)
		}
		p.Add(line)

		path, err := t.savePlot(p, "time_series")
		if err != nil {
			return "", databaseError(err)
		}
		return fmt.Sprintf("Time series saved as %s", path), nil
	})
}

// savePlot writes p to a fresh file under the plot directory so concurrent
// calls never share an output path.
func (t *Toolkit) savePlot(p *plot.Plot, prefix string) (string, error) {
	if err := os.MkdirAll(t.opts.PlotDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}

	path := filepath.Join(t.opts.PlotDir, fmt.Sprintf("%s-%s.png", prefix, uuid.NewString()))
	width := vg.Length(t.opts.PlotWidth) * vg.Centimeter
	height := vg.Length(t.opts.PlotHeight) * vg.Centimeter
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("failed to save plot: %w", err)
	}
	return path, nil
}

// HistogramBins splits [min, max] of values into n equal-width bins. Every
// bin is half-open except the last, which includes max. A constant sample
// is centred in a unit-wide range. Infinite and NaN values are not counted.
func HistogramBins(values []float64, n int) []plotter.HistogramBin {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}

	var lo, hi float64
	if len(finite) > 0 {
		lo, hi = floats.Min(finite), floats.Max(finite)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		bins[i].Min = lo + float64(i)*width
		bins[i].Max = lo + float64(i+1)*width
	}
	bins[n-1].Max = hi

	for _, v := range finite {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Weight++
	}
	return bins
}

// isFinite excludes the float8 infinities, which have no place on a chart axis.
func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
