package engine_test

import (
	"testing"
	"time"

	"github.com/warp/incentive-engine/engine"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
		ok    bool
	}{
		{name: "iso date", input: "2024-05-31", want: "2024-05-31", ok: true},
		{name: "rfc3339 truncates", input: "2024-05-31T22:15:04Z", want: "2024-05-31", ok: true},
		{name: "datetime layout", input: "2024-05-31 22:15:04", want: "2024-05-31", ok: true},
		{name: "us layout", input: "05/31/2024", want: "2024-05-31", ok: true},
		{name: "time value", input: time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC), want: "2024-05-31", ok: true},
		{name: "whitespace trimmed", input: "  2024-05-31  ", want: "2024-05-31", ok: true},
		{name: "empty string", input: "", ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "garbage", input: "soon", ok: false},
		{name: "number", input: 20240531, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := engine.ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("ParseDate(%v) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate_InWindowInclusive(t *testing.T) {
	from := engine.NewDate(2024, time.April, 1)
	to := engine.NewDate(2024, time.June, 30)

	if !from.InWindow(from, to) {
		t.Error("window start must be in window")
	}
	if !to.InWindow(from, to) {
		t.Error("window end must be in window")
	}
	if from.AddDays(-1).InWindow(from, to) {
		t.Error("day before window start must be out")
	}
	if to.AddDays(1).InWindow(from, to) {
		t.Error("day after window end must be out")
	}
}

func TestDate_ComparisonIsWholeDay(t *testing.T) {
	a, _ := engine.ParseDate("2024-05-31T01:00:00Z")
	b, _ := engine.ParseDate("2024-05-31T23:00:00Z")
	if !a.Equal(b) {
		t.Error("same calendar day must compare equal regardless of time")
	}
}

func TestDate_ZeroString(t *testing.T) {
	var d engine.Date
	if d.String() != "" {
		t.Errorf("zero date renders %q, want empty", d.String())
	}
}
