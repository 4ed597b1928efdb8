// Package chart renders projected series as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nixlim/chat-top/internal/projector"
)

const (
	DefaultWidth  = 400
	DefaultHeight = 300
)

var ErrEmptySeries = errors.New("series has no points")

var (
	lineColor = drawing.ColorFromHex("1677ff")
	gridColor = drawing.ColorFromHex("e0e0e0")
)

// Options controls chart size and title. Zero values select defaults.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults(s projector.Series) Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Title == "" {
		o.Title = s.Label
	}
	return o
}

// RenderPNG draws s as a line chart and writes the PNG to w. Labels that
// all parse as YYYY-MM-DD give a time axis; otherwise points are placed
// by position.
func RenderPNG(w io.Writer, s projector.Series, opts Options) error {
	if len(s.Points) == 0 {
		return ErrEmptySeries
	}
	opts = opts.withDefaults(s)

	ys := s.Values()
	style := chart.Style{
		StrokeColor: lineColor,
		StrokeWidth: 2,
		DotColor:    lineColor,
		DotWidth:    3,
	}

	var series chart.Series
	if times, ok := parseTimes(s.Points); ok {
		if len(times) == 1 {
			times = append(times, times[0].Add(24*time.Hour))
			ys = append(ys, ys[0])
		}
		series = chart.TimeSeries{Name: s.Label, XValues: times, YValues: ys, Style: style}
	} else {
		xs := make([]float64, len(ys))
		for i := range xs {
			xs[i] = float64(i)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		series = chart.ContinuousSeries{Name: s.Label, XValues: xs, YValues: ys, Style: style}
	}

	grid := chart.Style{StrokeColor: gridColor, StrokeWidth: 1}
	lo, hi := yRange(ys)

	ch := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			GridMajorStyle: grid,
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			GridMajorStyle: grid,
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{series},
	}
	if _, ok := series.(chart.ContinuousSeries); ok {
		ch.XAxis.ValueFormatter = nil
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering %q: %w", s.Label, err)
	}
	return nil
}

func parseTimes(points []projector.Point) ([]time.Time, bool) {
	out := make([]time.Time, len(points))
	for i, p := range points {
		t, err := time.Parse("2006-01-02", p.Time)
		if err != nil {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// yRange returns an axis range that always has a non-zero span.
func yRange(ys []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range ys {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		return lo - 1, hi + 1
	}
	return lo, hi
}
