// Package stats decodes the chat statistics record returned by the
// analytics service. Decoding keeps the server's key order, which the
// dashboard relies on for display order.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrNotObject   = errors.New("record is not a JSON object")
)

// Group is an ordered set of fields. It backs both the top-level record
// and the nested day/week time-series groups.
type Group struct {
	fields []Field
	index  map[string]int
}

// Fields returns the fields in document order. The slice must not be modified.
func (g *Group) Fields() []Field {
	if g == nil {
		return nil
	}
	return g.fields
}

// Len returns the number of distinct keys.
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.fields)
}

// Get returns the value stored under key.
func (g *Group) Get(key string) (Value, bool) {
	if g == nil {
		return Value{}, false
	}
	i, ok := g.index[key]
	if !ok {
		return Value{}, false
	}
	return g.fields[i].Value, true
}

// Number returns the value under key if it is a scalar number.
func (g *Group) Number(key string) (float64, bool) {
	v, ok := g.Get(key)
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Series returns the value under key if it is an all-numeric array.
func (g *Group) Series(key string) ([]float64, bool) {
	v, ok := g.Get(key)
	if !ok || v.Kind != KindSeries {
		return nil, false
	}
	return v.Series, true
}

// Subgroup returns the nested object under key.
func (g *Group) Subgroup(key string) (*Group, bool) {
	v, ok := g.Get(key)
	if !ok || v.Kind != KindGroup {
		return nil, false
	}
	return v.Group, true
}

// Labels returns the array under key as strings. Date labels are normally
// strings; numeric labels are rendered with their JSON text.
func (g *Group) Labels(key string) ([]string, bool) {
	v, ok := g.Get(key)
	if !ok || (v.Kind != KindList && v.Kind != KindSeries) {
		return nil, false
	}
	items := gjson.Parse(v.Raw).Array()
	labels := make([]string, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case gjson.String, gjson.Number:
			labels = append(labels, it.String())
		default:
			return nil, false
		}
	}
	return labels, true
}

// set stores a field. A repeated key keeps its first position and takes
// the later value.
func (g *Group) set(key string, v Value) {
	if i, ok := g.index[key]; ok {
		g.fields[i].Value = v
		return
	}
	g.index[key] = len(g.fields)
	g.fields = append(g.fields, Field{Key: key, Value: v})
}

// Record is the statistics record for one chat.
type Record struct {
	Group
}

// Dialogues decodes the dialogue list stored under key. Entries that are
// not objects are skipped; a missing or non-array value yields nil.
func (r *Record) Dialogues(key string) []Dialogue {
	v, ok := r.Get(key)
	if !ok || v.Kind != KindList {
		return nil
	}
	var out []Dialogue
	gjson.Parse(v.Raw).ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		out = append(out, Dialogue{
			Start:    participant(item.Get("start")),
			End:      participant(item.Get("end")),
			Duration: item.Get("durationHum").String(),
		})
		return true
	})
	return out
}

func participant(r gjson.Result) Participant {
	return Participant{
		Sender:  r.Get("sender").String(),
		Date:    r.Get("date").String(),
		Message: r.Get("message").String(),
	}
}

// Parse decodes a statistics record from its JSON body.
func Parse(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, root.Type)
	}
	return &Record{Group: *decodeGroup(root)}, nil
}

func decodeGroup(obj gjson.Result) *Group {
	g := &Group{index: make(map[string]int)}
	obj.ForEach(func(k, v gjson.Result) bool {
		g.set(k.String(), decodeValue(v))
		return true
	})
	return g
}

func decodeValue(r gjson.Result) Value {
	v := Value{Raw: r.Raw}
	switch r.Type {
	case gjson.Null:
		v.Kind = KindNull
	case gjson.True, gjson.False:
		v.Kind = KindBool
	case gjson.Number:
		v.Kind = KindNumber
		v.Number = r.Num
	case gjson.String:
		v.Kind = KindString
		v.Text = r.Str
	case gjson.JSON:
		switch {
		case r.IsObject():
			v.Kind = KindGroup
			v.Group = decodeGroup(r)
		case r.IsArray():
			if nums, ok := numericArray(r); ok {
				v.Kind = KindSeries
				v.Series = nums
			} else {
				v.Kind = KindList
			}
		}
	}
	return v
}

// numericArray decodes an array of numbers. A null element is a missing
// sample and decodes as NaN; any other element type rejects the array.
func numericArray(r gjson.Result) ([]float64, bool) {
	items := r.Array()
	nums := make([]float64, 0, len(items))
	for _, it := range items {
		switch it.Type {
		case gjson.Number:
			nums = append(nums, it.Num)
		case gjson.Null:
			nums = append(nums, math.NaN())
		default:
			return nil, false
		}
	}
	return nums, true
}
