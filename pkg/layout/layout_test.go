package layout

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/tkarrer/deckhand/pkg/errors"
)

func validLayout() Layout {
	return Layout{
		{Type: "clock", X: 0, Y: 0, W: 2, H: 1},
		{Type: "weather", X: 2, Y: 0, W: 2, H: 2},
		{Type: "todos", X: 0, Y: 1, W: 2, H: 3},
	}
}

func TestValidate_AllValid(t *testing.T) {
	if err := Validate(validLayout()); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidate_EmptyLayout(t *testing.T) {
	if err := Validate(Layout{}); err != nil {
		t.Errorf("Validate(empty) = %v, want nil", err)
	}
	if err := Validate(nil); err != nil {
		t.Errorf("Validate(nil) = %v, want nil", err)
	}
}

func TestValidate_RejectsBadWidgets(t *testing.T) {
	tests := []struct {
		name   string
		widget Widget
	}{
		{"missing type", Widget{X: 0, Y: 0, W: 1, H: 1}},
		{"undefined placeholder", Widget{Type: "undefined", X: 0, Y: 0, W: 1, H: 1}},
		{"null placeholder", Widget{Type: "null", X: 0, Y: 0, W: 1, H: 1}},
		{"NaN x", Widget{Type: "clock", X: math.NaN(), Y: 0, W: 1, H: 1}},
		{"infinite h", Widget{Type: "clock", X: 0, Y: 0, W: 1, H: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// One bad widget rejects the whole layout, even among valid ones.
			l := append(validLayout(), tt.widget)
			err := Validate(l)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidLayout) {
				t.Errorf("error code = %v, want INVALID_LAYOUT", errors.GetCode(err))
			}
		})
	}
}

func TestValidate_GeometryNotConstrained(t *testing.T) {
	// Only field types matter: zero and negative geometry passes.
	l := Layout{{Type: "notes", X: -3, Y: 0, W: 0, H: -1}}
	if err := Validate(l); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSanitize_DropsInvalidKeepsOrder(t *testing.T) {
	l := Layout{
		{Type: "a", X: 0, Y: 0, W: 1, H: 1},
		{Type: "", X: 1, Y: 1, W: 1, H: 1},
		{Type: "b", X: 2, Y: 0, W: 1, H: 1},
	}

	got := Sanitize(l, nil)
	want := Layout{
		{Type: "a", X: 0, Y: 0, W: 1, H: 1},
		{Type: "b", X: 2, Y: 0, W: 1, H: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize() = %+v, want %+v", got, want)
	}
}

func TestSanitize_AllInvalidReturnsNil(t *testing.T) {
	l := Layout{
		{Type: "", X: 0, Y: 0, W: 1, H: 1},
		{Type: "undefined", X: 1, Y: 1, W: 1, H: 1},
	}
	if got := Sanitize(l, nil); got != nil {
		t.Errorf("Sanitize() = %+v, want nil", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	l := Layout{
		{Type: "a", X: 0, Y: 0, W: 1, H: 1},
		{Type: "", X: 1, Y: 1, W: 1, H: 1},
		{Type: "b", X: 0, Y: 0, W: 1, H: math.NaN()},
	}

	once := Sanitize(l, nil)
	twice := Sanitize(once, nil)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Sanitize twice = %+v, want %+v", twice, once)
	}
}

func TestSanitize_SpecExample(t *testing.T) {
	// validateForSave is false; validateForLoad keeps only the first widget.
	l := Layout{
		{Type: "a", X: 0, Y: 0, W: 1, H: 1},
		{Type: "", X: 1, Y: 1, W: 1, H: 1},
	}

	if err := Validate(l); err == nil {
		t.Error("Validate() = nil, want error")
	}

	got := Sanitize(l, nil)
	want := Layout{{Type: "a", X: 0, Y: 0, W: 1, H: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize() = %+v, want %+v", got, want)
	}
}

// recordingReporter captures reporter events for assertions.
type recordingReporter struct {
	drops     []int
	discards  []string
	summaries int
}

func (r *recordingReporter) WidgetDropped(index int, reason string) { r.drops = append(r.drops, index) }
func (r *recordingReporter) LayoutDiscarded(key, reason string)     { r.discards = append(r.discards, key) }
func (r *recordingReporter) SanitizeDone(kept, dropped int)         { r.summaries++ }

func TestSanitize_ReportsDrops(t *testing.T) {
	rep := &recordingReporter{}
	l := Layout{
		{Type: "a", X: 0, Y: 0, W: 1, H: 1},
		{Type: "", X: 1, Y: 1, W: 1, H: 1},
		{Type: "null", X: 2, Y: 2, W: 1, H: 1},
	}

	Sanitize(l, rep)

	if !reflect.DeepEqual(rep.drops, []int{1, 2}) {
		t.Errorf("dropped indices = %v, want [1 2]", rep.drops)
	}
	if rep.summaries != 1 {
		t.Errorf("summaries = %d, want 1", rep.summaries)
	}
}

func TestSanitize_NoSummaryWhenClean(t *testing.T) {
	rep := &recordingReporter{}
	Sanitize(validLayout(), rep)
	if rep.summaries != 0 {
		t.Errorf("summaries = %d, want 0 for a clean layout", rep.summaries)
	}
}

func TestWidget_DecodeCarriesExtras(t *testing.T) {
	data := []byte(`{"type":"notes","x":1,"y":2,"w":3,"h":4,"title":"groceries","pinned":true}`)

	var w Widget
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Type != "notes" || w.X != 1 || w.Y != 2 || w.W != 3 || w.H != 4 {
		t.Errorf("validated fields = %+v", w)
	}
	if w.Extra["title"] != "groceries" || w.Extra["pinned"] != true {
		t.Errorf("extras not carried: %v", w.Extra)
	}
}

func TestWidget_DecodeMalformedIsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"non-object", `42`},
		{"numeric type", `{"type":7,"x":0,"y":0,"w":1,"h":1}`},
		{"string dimension", `{"type":"clock","x":"0","y":0,"w":1,"h":1}`},
		{"missing dimension", `{"type":"clock","x":0,"y":0,"w":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Widget
			if err := json.Unmarshal([]byte(tt.data), &w); err != nil {
				t.Fatalf("unmarshal errored instead of decoding invalid: %v", err)
			}
			if w.Valid() {
				t.Errorf("widget decoded from %s is valid, want invalid", tt.data)
			}
		})
	}
}

func TestWidget_RoundTripPreservesExtras(t *testing.T) {
	w := Widget{
		Type:  "calendar",
		X:     1, Y: 0, W: 2, H: 2,
		Extra: map[string]any{"source": "work"},
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Widget
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, w) {
		t.Errorf("round trip = %+v, want %+v", got, w)
	}
}

func TestParseStrict(t *testing.T) {
	good := []byte(`[{"type":"clock","x":0,"y":0,"w":1,"h":1}]`)
	l, err := ParseStrict(good)
	if err != nil {
		t.Fatalf("ParseStrict() failed: %v", err)
	}
	if len(l) != 1 || l[0].Type != "clock" {
		t.Errorf("ParseStrict() = %+v", l)
	}

	if _, err := ParseStrict([]byte(`{"not":"an array"}`)); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("non-array error code = %v, want PARSE_ERROR", errors.GetCode(err))
	}
	if _, err := ParseStrict([]byte(`[{"type":"","x":0,"y":0,"w":1,"h":1}]`)); !errors.Is(err, errors.ErrCodeInvalidLayout) {
		t.Errorf("invalid widget error code = %v, want INVALID_LAYOUT", errors.GetCode(err))
	}
}

func TestLayout_Types(t *testing.T) {
	l := Layout{
		{Type: "weather"}, {Type: "clock"}, {Type: "weather"},
	}
	got := l.Types()
	want := []string{"clock", "weather"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
}
