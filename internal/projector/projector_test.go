package projector

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/nixlim/chat-top/internal/stats"
)

func mustParse(t *testing.T, body string) *stats.Record {
	t.Helper()
	rec, err := stats.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return rec
}

func recordWithDays(days int) string {
	return recordWithContact(fmt.Sprintf(`"Сколько дней общаемся": %d,`, days))
}

// recordWithContact builds the sample record with contact verbatim in
// place of the contact-days field; "" leaves the field out.
func recordWithContact(contact string) string {
	return fmt.Sprintf(`{
		"Имя": "Alice",
		"Сообщений получено": 1234.5,
		"Сообщений отправлено": 800,
		%s
		"Фото получено": 3,
		"Любимое слово": "привет",
		"Диалоги": [{"start": {"sender": "Alice"}, "end": {"sender": "Bob"}, "durationHum": "5 минут"}],
		"Недели": {
			"От даты": ["2024-03-04", "2024-03-11"],
			"Сообщений получено": [10, 0],
			"Сообщений отправлено": [10, 5],
			"Ответов в среднем": [1, 2]
		},
		"Дни": {
			"От даты": ["2024-03-07", "2024-03-08"],
			"Сообщений получено": [4, 6],
			"Сообщений отправлено": [0, 6],
			"Среднее длительность диалога (текстом)": [1, 2]
		}
	}`, contact)
}

func newTestProjector() *Projector {
	return New(DefaultClassification(), WithFormatter(NewFormatter("en")))
}

func TestProject_GatingByContactDays(t *testing.T) {
	p := newTestProjector()

	short := p.Project(mustParse(t, recordWithDays(3)))
	if short.ChartsEnabled {
		t.Error("3 days of contact must not enable charts")
	}
	if len(short.WeekPrimary) != 0 || len(short.DayPrimary) != 0 || len(short.Contested) != 0 {
		t.Errorf("chart sections should be empty, got week=%d day=%d contested=%d",
			len(short.WeekPrimary), len(short.DayPrimary), len(short.Contested))
	}
	if len(short.WeekSeries) == 0 {
		t.Error("raw week series should still be extracted when gated")
	}

	long := p.Project(mustParse(t, recordWithDays(10)))
	if !long.ChartsEnabled {
		t.Fatal("10 days of contact must enable charts")
	}
	if long.ContactDays != 10 {
		t.Errorf("ContactDays: want 10, got %v", long.ContactDays)
	}
	if len(long.WeekPrimary) == 0 || len(long.DayPrimary) == 0 {
		t.Errorf("chart sections should be present, got week=%d day=%d", len(long.WeekPrimary), len(long.DayPrimary))
	}
}

func TestProject_GatingBoundary(t *testing.T) {
	p := newTestProjector()

	tests := []struct {
		name    string
		contact string
		want    bool
	}{
		{"exactly the threshold", `"Сколько дней общаемся": 7,`, true},
		{"just below", `"Сколько дней общаемся": 6.99,`, false},
		{"missing field", "", false},
		{"non-numeric field", `"Сколько дней общаемся": "много",`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj := p.Project(mustParse(t, recordWithContact(tt.contact)))
			if proj.ChartsEnabled != tt.want {
				t.Errorf("ChartsEnabled = %v, want %v (contact days %v)", proj.ChartsEnabled, tt.want, proj.ContactDays)
			}
			if tt.want && len(proj.WeekPrimary) == 0 {
				t.Error("enabled projection should carry week charts")
			}
			if !tt.want && len(proj.WeekPrimary) != 0 {
				t.Errorf("gated projection has %d week charts", len(proj.WeekPrimary))
			}
		})
	}
}

func TestProject_ListsEncodeAsArrays(t *testing.T) {
	p := newTestProjector()

	for name, rec := range map[string]*stats.Record{
		"nil record": nil,
		"gated":      mustParse(t, `{"Имя": "Alice", "Сколько дней общаемся": 1}`),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(p.Project(rec))
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if strings.Contains(string(data), "null") {
				t.Errorf("projection should not encode null lists: %s", data)
			}
			for _, key := range []string{"dialogues", "weekPrimary", "dayPrimary", "contested", "weekSeries", "daySeries"} {
				if !strings.Contains(string(data), `"`+key+`":[]`) {
					t.Errorf("%s should encode as []: %s", key, data)
				}
			}
		})
	}
}

func TestProject_NullSamplesLeaveGaps(t *testing.T) {
	body := `{
		"Сколько дней общаемся": 10,
		"Недели": {
			"От даты": ["2024-03-04", "2024-03-11", "2024-03-18"],
			"Сообщений получено": [1, null, 3],
			"Сообщений отправлено": [1, 5, 1]
		}
	}`
	proj := newTestProjector().Project(mustParse(t, body))

	if len(proj.WeekPrimary) != 2 {
		t.Fatalf("want interest plus received series, got %d series", len(proj.WeekPrimary))
	}
	interest := proj.WeekPrimary[0]
	if interest.Label != "Интерес по сообщениям" {
		t.Fatalf("first series: want interest, got %q", interest.Label)
	}
	var times []string
	for _, pt := range interest.Points {
		times = append(times, pt.Time)
	}
	if got := strings.Join(times, ","); got != "2024-03-04,2024-03-18" {
		t.Fatalf("interest should skip the missing week, got %s", got)
	}
	if got := interest.Values(); got[1] != 0.75 {
		t.Errorf("interest values = %v, want [0.5 0.75]", got)
	}

	if received := proj.WeekPrimary[1]; received.Label != "Сообщений получено" || len(received.Points) != 2 {
		t.Errorf("received series should keep 2 points, got %q with %d", received.Label, len(received.Points))
	}
}

func TestProject_InterestSeriesFirst(t *testing.T) {
	proj := newTestProjector().Project(mustParse(t, recordWithDays(10)))

	first := proj.WeekPrimary[0]
	if first.Label != "Интерес по сообщениям" {
		t.Fatalf("first week series: want interest, got %q", first.Label)
	}
	want := []float64{0.5, 0.0}
	got := first.Values()
	if len(got) != len(want) {
		t.Fatalf("interest length: want %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interest[%d]: want %v, got %v", i, want[i], got[i])
		}
	}

	if proj.DayPrimary[0].Label != "Интерес по сообщениям" {
		t.Errorf("first day series: want interest, got %q", proj.DayPrimary[0].Label)
	}
}

func TestProject_PrimaryAndContested(t *testing.T) {
	proj := newTestProjector().Project(mustParse(t, recordWithDays(10)))

	labels := func(ss []Series) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.Label)
		}
		return out
	}

	week := labels(proj.WeekPrimary)
	if strings.Join(week, ",") != "Интерес по сообщениям,Сообщений получено" {
		t.Errorf("week primary: got %v", week)
	}
	contested := labels(proj.Contested)
	if strings.Join(contested, ",") != "Сообщений отправлено,Ответов в среднем" {
		t.Errorf("contested: got %v", contested)
	}
	for _, s := range proj.DaySeries {
		if s.Label == "Среднее длительность диалога (текстом)" {
			t.Error("non-series key must not be charted")
		}
	}
}

func TestProject_SeriesLengthMatchesLabels(t *testing.T) {
	proj := newTestProjector().Project(mustParse(t, recordWithDays(10)))
	for _, s := range append(proj.WeekSeries, proj.DaySeries...) {
		if len(s.Points) != 2 {
			t.Errorf("%s: want 2 points, got %d", s.Label, len(s.Points))
		}
	}
}

func TestProject_MisalignedSeriesSkipped(t *testing.T) {
	rec := mustParse(t, `{
		"Сколько дней общаемся": 30,
		"Недели": {
			"От даты": ["a", "b", "c"],
			"Сообщений получено": [1, 2],
			"Сообщений отправлено": [1, 2, 3]
		}
	}`)
	proj := newTestProjector().Project(rec)
	if len(proj.WeekSeries) != 1 || proj.WeekSeries[0].Label != "Сообщений отправлено" {
		t.Errorf("want only the aligned series, got %+v", proj.WeekSeries)
	}
	for _, s := range proj.WeekPrimary {
		if s.Label == "Интерес по сообщениям" {
			t.Error("interest must be omitted when inputs are misaligned")
		}
	}
}

func TestProject_MissingGroupsYieldEmpty(t *testing.T) {
	rec := mustParse(t, `{"Сколько дней общаемся": 30, "Недели": {"Сообщений получено": [1]}}`)
	proj := newTestProjector().Project(rec)
	if len(proj.WeekSeries) != 0 || len(proj.DaySeries) != 0 {
		t.Errorf("missing date key / group should yield no series, got week=%d day=%d",
			len(proj.WeekSeries), len(proj.DaySeries))
	}
	if len(proj.WeekPrimary) != 0 {
		t.Errorf("no interest without labels, got %+v", proj.WeekPrimary)
	}
}

func TestProject_TitleAndDialogues(t *testing.T) {
	proj := newTestProjector().Project(mustParse(t, recordWithDays(3)))
	if proj.Title != "Alice" {
		t.Errorf("Title: want Alice, got %q", proj.Title)
	}
	if len(proj.Dialogues) != 1 || proj.Dialogues[0].Duration != "5 минут" {
		t.Errorf("Dialogues: got %+v", proj.Dialogues)
	}
}

func TestProject_NilRecord(t *testing.T) {
	proj := newTestProjector().Project(nil)
	if len(proj.Groups) != 5 {
		t.Errorf("want 5 empty groups, got %d", len(proj.Groups))
	}
	if proj.ChartsEnabled {
		t.Error("nil record must not enable charts")
	}
}

func TestGroup_IsPartition(t *testing.T) {
	rec := mustParse(t, recordWithDays(10))
	p := newTestProjector()
	groups := p.Group(rec)

	seen := make(map[string]string)
	for _, g := range groups {
		for _, f := range g.Fields {
			if prev, dup := seen[f.Label]; dup {
				t.Errorf("%q appears in %q and %q", f.Label, prev, g.Name)
			}
			seen[f.Label] = g.Name
		}
	}

	structural := setOf(DefaultClassification().StructuralKeys)
	for _, f := range rec.Fields() {
		if structural[f.Key] {
			if _, ok := seen[f.Key]; ok {
				t.Errorf("structural key %q must not be grouped", f.Key)
			}
			continue
		}
		if _, ok := seen[f.Key]; !ok {
			t.Errorf("%q was dropped", f.Key)
		}
	}

	if seen["Фото получено"] != "Фото" {
		t.Errorf("Фото получено: want bucket Фото, got %q", seen["Фото получено"])
	}
	if seen["Любимое слово"] != "Разное" {
		t.Errorf("unlisted key: want bucket Разное, got %q", seen["Любимое слово"])
	}
}

func TestGroup_FirstBucketWins(t *testing.T) {
	cls := DefaultClassification().WithBucketKeys("Фото", []string{"Сообщений получено"})
	p := New(cls, WithFormatter(NewFormatter("en")))
	groups := p.Group(mustParse(t, `{"Сообщений получено": 1}`))
	if len(groups[0].Fields) != 1 || len(groups[1].Fields) != 0 {
		t.Errorf("key listed twice must land in the first bucket only: common=%d photo=%d",
			len(groups[0].Fields), len(groups[1].Fields))
	}
}

func TestGroup_KeepsRecordOrderAndFormats(t *testing.T) {
	groups := newTestProjector().Group(mustParse(t, recordWithDays(10)))
	common := groups[0]
	if common.Name != "Общее" {
		t.Fatalf("first group: want Общее, got %q", common.Name)
	}
	want := []struct{ label, display string }{
		{"Сообщений получено", "1,234.5"},
		{"Сообщений отправлено", "800"},
		{"Сколько дней общаемся", "10"},
	}
	if len(common.Fields) != len(want) {
		t.Fatalf("common fields: want %d, got %d", len(want), len(common.Fields))
	}
	for i, w := range want {
		f := common.Fields[i]
		if f.Label != w.label || f.Display != w.display || !f.Numeric {
			t.Errorf("field %d: want %s=%s, got %s=%s (numeric=%v)", i, w.label, w.display, f.Label, f.Display, f.Numeric)
		}
	}

	other := groups[len(groups)-1]
	if other.Fields[0].Display != "привет" || other.Fields[0].Numeric {
		t.Errorf("string field must display unchanged, got %+v", other.Fields[0])
	}
}
