package stats

import "strconv"

// Kind classifies a decoded JSON value by its runtime type.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindSeries // array of numbers, nulls decoded as NaN
	KindGroup  // nested object
	KindList   // any other array
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindSeries:
		return "series"
	case KindGroup:
		return "group"
	case KindList:
		return "list"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one server-defined metric value.
type Value struct {
	Kind   Kind
	Number float64   // KindNumber
	Text   string    // KindString
	Series []float64 // KindSeries
	Group  *Group    // KindGroup
	Raw    string    // original JSON text, always set
}

// IsNumber reports whether the value is a scalar number.
func (v Value) IsNumber() bool {
	return v.Kind == KindNumber
}

// Literal returns the value as displayed when it is not formatted as a
// number: strings unquoted, everything else as its JSON text.
func (v Value) Literal() string {
	switch v.Kind {
	case KindString:
		return v.Text
	case KindNull:
		return ""
	}
	return v.Raw
}

// Field is a named value in document order.
type Field struct {
	Key   string
	Value Value
}

// Participant is one side of a dialogue boundary.
type Participant struct {
	Sender  string `json:"sender"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// Dialogue is one conversation episode detected by the analytics service.
type Dialogue struct {
	Start    Participant `json:"start"`
	End      Participant `json:"end"`
	Duration string      `json:"durationHum"`
}
