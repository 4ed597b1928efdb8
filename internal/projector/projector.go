// Package projector turns a statistics record into what the dashboard
// shows: labeled summary groups, the dialogue table and chart series.
// Projection is pure; the same record and classification always produce
// the same output.
package projector

import "github.com/nixlim/chat-top/internal/stats"

// GroupedField is one classified summary row.
type GroupedField struct {
	Label   string      `json:"label"`
	Display string      `json:"display"`
	Numeric bool        `json:"numeric"`
	Value   stats.Value `json:"-"`
}

// Group is one summary panel.
type Group struct {
	Name   string         `json:"name"`
	Fields []GroupedField `json:"fields"`
}

// Projection is the display-ready view of one record.
type Projection struct {
	Title     string           `json:"title"`
	Groups    []Group          `json:"groups"`
	Dialogues []stats.Dialogue `json:"dialogues"`

	ContactDays   float64 `json:"contactDays"`
	ChartsEnabled bool    `json:"chartsEnabled"`

	WeekPrimary []Series `json:"weekPrimary"`
	DayPrimary  []Series `json:"dayPrimary"`
	Contested   []Series `json:"contested"`

	WeekSeries []Series `json:"weekSeries"`
	DaySeries  []Series `json:"daySeries"`
}

// Section returns the gated chart section by name: "week", "day" or
// "contested".
func (p Projection) Section(name string) ([]Series, bool) {
	switch name {
	case "week":
		return p.WeekPrimary, true
	case "day":
		return p.DayPrimary, true
	case "contested":
		return p.Contested, true
	}
	return nil, false
}

// Projector applies a Classification to records.
type Projector struct {
	cls    Classification
	format *Formatter

	structural map[string]bool
	nonSeries  map[string]bool
	primary    map[string]bool
	bucketOf   map[string]int
}

// Option configures a Projector.
type Option func(*Projector)

// WithFormatter sets the number formatter. The default formats for Russian.
func WithFormatter(f *Formatter) Option {
	return func(p *Projector) {
		p.format = f
	}
}

// New creates a Projector for cls.
func New(cls Classification, opts ...Option) *Projector {
	p := &Projector{
		cls:        cls,
		structural: setOf(cls.StructuralKeys),
		nonSeries:  setOf(cls.NonSeriesKeys),
		primary:    setOf(cls.PrimaryMetrics),
		bucketOf:   make(map[string]int),
	}
	for i, b := range cls.Buckets {
		for _, k := range b.Keys {
			if _, ok := p.bucketOf[k]; !ok {
				p.bucketOf[k] = i
			}
		}
	}
	for _, o := range opts {
		o(p)
	}
	if p.format == nil {
		p.format = NewFormatter("ru")
	}
	return p
}

// Classification returns the table the projector was built with.
func (p *Projector) Classification() Classification {
	return p.cls
}

// Formatter returns the number formatter in use.
func (p *Projector) Formatter() *Formatter {
	return p.format
}

// Project derives the full projection of rec. A nil record yields the
// empty projection with all groups present. Lists are never nil, so they
// encode as [] rather than null.
func (p *Projector) Project(rec *stats.Record) Projection {
	out := p.project(rec)
	out.fillEmpty()
	return out
}

func (p *Projection) fillEmpty() {
	for i := range p.Groups {
		if p.Groups[i].Fields == nil {
			p.Groups[i].Fields = []GroupedField{}
		}
	}
	if p.Dialogues == nil {
		p.Dialogues = []stats.Dialogue{}
	}
	for _, s := range []*[]Series{&p.WeekPrimary, &p.DayPrimary, &p.Contested, &p.WeekSeries, &p.DaySeries} {
		if *s == nil {
			*s = []Series{}
		}
	}
}

func (p *Projector) project(rec *stats.Record) Projection {
	out := Projection{Groups: p.Group(rec)}
	if rec == nil {
		return out
	}

	if v, ok := rec.Get(p.cls.TitleKey); ok {
		out.Title = v.Literal()
	}
	out.Dialogues = rec.Dialogues(p.cls.DialoguesKey)

	days, hasDays := rec.Subgroup(p.cls.DaysKey)
	weeks, hasWeeks := rec.Subgroup(p.cls.WeeksKey)
	if hasDays {
		out.DaySeries = p.extractSeries(days)
	}
	if hasWeeks {
		out.WeekSeries = p.extractSeries(weeks)
	}

	out.ContactDays, out.ChartsEnabled = p.chartsEnabled(rec)
	if !out.ChartsEnabled {
		return out
	}

	if hasWeeks {
		if s, ok := p.interest(weeks); ok {
			out.WeekPrimary = append(out.WeekPrimary, s)
		}
	}
	for _, s := range out.WeekSeries {
		if p.primary[s.Label] {
			out.WeekPrimary = append(out.WeekPrimary, s)
		} else {
			out.Contested = append(out.Contested, s)
		}
	}

	if hasDays {
		if s, ok := p.interest(days); ok {
			out.DayPrimary = append(out.DayPrimary, s)
		}
	}
	for _, s := range out.DaySeries {
		if p.primary[s.Label] {
			out.DayPrimary = append(out.DayPrimary, s)
		}
	}
	return out
}

// Group partitions the non-structural top-level fields into buckets. Each
// field lands in the first bucket listing it, or in the other bucket.
func (p *Projector) Group(rec *stats.Record) []Group {
	groups := make([]Group, len(p.cls.Buckets)+1)
	for i, b := range p.cls.Buckets {
		groups[i].Name = b.Name
	}
	other := len(p.cls.Buckets)
	groups[other].Name = p.cls.OtherBucket

	if rec == nil {
		return groups
	}
	for _, f := range rec.Fields() {
		if p.structural[f.Key] {
			continue
		}
		idx, ok := p.bucketOf[f.Key]
		if !ok {
			idx = other
		}
		groups[idx].Fields = append(groups[idx].Fields, GroupedField{
			Label:   f.Key,
			Display: p.format.Value(f.Value),
			Numeric: f.Value.IsNumber(),
			Value:   f.Value,
		})
	}
	return groups
}

func (p *Projector) chartsEnabled(rec *stats.Record) (float64, bool) {
	n, ok := rec.Number(p.cls.ContactDaysKey)
	if !ok {
		return 0, false
	}
	return n, n >= p.cls.MinContactDays
}
