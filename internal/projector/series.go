package projector

import (
	"math"

	"github.com/nixlim/chat-top/internal/stats"
)

// Point is one chart sample.
type Point struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// Series is a labeled, time-ordered point sequence ready for charting.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Values returns the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Dedupe collapses points that share a Time. The surviving point stays at
// the position of the first occurrence and carries the last value seen.
func Dedupe(points []Point) []Point {
	out := make([]Point, 0, len(points))
	pos := make(map[string]int, len(points))
	for _, p := range points {
		if i, ok := pos[p.Time]; ok {
			out[i].Value = p.Value
			continue
		}
		pos[p.Time] = len(out)
		out = append(out, p)
	}
	return out
}

// zip pairs dates with values. NaN values are missing samples and leave
// a gap.
func zip(label string, times []string, values []float64) Series {
	points := make([]Point, 0, len(times))
	for i := range times {
		if math.IsNaN(values[i]) {
			continue
		}
		points = append(points, Point{Time: times[i], Value: values[i]})
	}
	return Series{Label: label, Points: Dedupe(points)}
}

// extractSeries turns every aligned numeric field of a time-series group
// into a Series. A missing group or date key yields nil.
func (p *Projector) extractSeries(g *stats.Group) []Series {
	labels, ok := g.Labels(p.cls.DateKey)
	if !ok {
		return nil
	}
	var out []Series
	for _, f := range g.Fields() {
		if f.Key == p.cls.DateKey || p.nonSeries[f.Key] {
			continue
		}
		if f.Value.Kind != stats.KindSeries || len(f.Value.Series) != len(labels) {
			continue
		}
		out = append(out, zip(f.Key, labels, f.Value.Series))
	}
	return out
}

// interest derives received/(received+sent) per date. A zero denominator
// yields 0. Missing or misaligned inputs yield false.
func (p *Projector) interest(g *stats.Group) (Series, bool) {
	labels, ok := g.Labels(p.cls.DateKey)
	if !ok {
		return Series{}, false
	}
	received, ok := g.Series(p.cls.ReceivedKey)
	if !ok || len(received) != len(labels) {
		return Series{}, false
	}
	sent, ok := g.Series(p.cls.SentKey)
	if !ok || len(sent) != len(labels) {
		return Series{}, false
	}
	return zip(p.cls.InterestLabel, labels, InterestRatio(received, sent)), true
}

// InterestRatio computes received[i]/(received[i]+sent[i]) over the common
// prefix of both slices. A zero denominator yields 0; a missing (NaN)
// sample yields NaN.
func InterestRatio(received, sent []float64) []float64 {
	n := min(len(received), len(sent))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		total := received[i] + sent[i]
		if total == 0 {
			continue
		}
		out[i] = received[i] / total
	}
	return out
}
