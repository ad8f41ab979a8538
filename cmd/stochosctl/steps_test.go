package main

import (
	"reflect"
	"testing"
)

func TestParseSteps(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []float64
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "0.1", want: []float64{0.1}},
		{name: "vector", raw: "0.1, 0.25,0.5", want: []float64{0.1, 0.25, 0.5}},
		{name: "blank element", raw: "0.1,,0.5", wantErr: true},
		{name: "not a number", raw: "0.1,abc", wantErr: true},
		{name: "zero step", raw: "0", wantErr: true},
		{name: "negative step", raw: "-0.1", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSteps(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSteps(%q): %v", tc.raw, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("parseSteps(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
