package projector

import "testing"

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []Point
		want []Point
	}{
		{
			name: "no duplicates",
			in:   []Point{{"a", 1}, {"b", 2}},
			want: []Point{{"a", 1}, {"b", 2}},
		},
		{
			name: "later value wins at first position",
			in:   []Point{{"a", 1}, {"b", 2}, {"a", 3}},
			want: []Point{{"a", 3}, {"b", 2}},
		},
		{
			name: "three copies",
			in:   []Point{{"x", 1}, {"x", 2}, {"x", 5}},
			want: []Point{{"x", 5}},
		},
		{
			name: "empty",
			in:   nil,
			want: []Point{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("point %d: want %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestInterestRatio(t *testing.T) {
	tests := []struct {
		name           string
		received, sent []float64
		want           []float64
	}{
		{"mixed", []float64{10, 0}, []float64{10, 5}, []float64{0.5, 0}},
		{"zero denominator yields zero", []float64{0}, []float64{0}, []float64{0}},
		{"all received", []float64{4}, []float64{0}, []float64{1}},
		{"uneven lengths use common prefix", []float64{1, 1, 1}, []float64{1}, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterestRatio(tt.received, tt.sent)
			if len(got) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("[%d]: want %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestExtractSeries_DuplicateDatesCollapse(t *testing.T) {
	rec := mustParse(t, `{
		"Сколько дней общаемся": 10,
		"Дни": {
			"От даты": ["2024-03-07", "2024-03-08", "2024-03-07"],
			"Сообщений получено": [1, 2, 9]
		}
	}`)
	proj := newTestProjector().Project(rec)
	if len(proj.DaySeries) != 1 {
		t.Fatalf("want 1 series, got %d", len(proj.DaySeries))
	}
	pts := proj.DaySeries[0].Points
	if len(pts) != 2 {
		t.Fatalf("want 2 points after dedupe, got %v", pts)
	}
	if pts[0].Time != "2024-03-07" || pts[0].Value != 9 {
		t.Errorf("duplicate date: want 2024-03-07=9, got %v", pts[0])
	}
}
