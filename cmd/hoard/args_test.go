package main

import (
	"errors"
	"testing"

	"hoard-go/internal/model"
)

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"fps=24", "note=a=b", " status =final"})
	if err != nil {
		t.Fatalf("parseKeyValues() error = %v", err)
	}
	want := map[string]string{"fps": "24", "note": "a=b", "status": "final"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("got[%q] = %q, want %q", k, got[k], v)
		}
	}

	if got, err := parseKeyValues(nil); err != nil || got != nil {
		t.Errorf("parseKeyValues(nil) = %v, %v", got, err)
	}
	for _, bad := range []string{"fps", "=24"} {
		if _, err := parseKeyValues([]string{bad}); !errors.Is(err, model.ErrInvalidMetadata) {
			t.Errorf("parseKeyValues(%q) error = %v, want ErrInvalidMetadata", bad, err)
		}
	}
}

func TestParseMetadataFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    model.MetadataFilter
		wantErr bool
	}{
		{in: "fps>=24", want: model.MetadataFilter{Key: "fps", Op: ">=", Value: "24"}},
		{in: "fps<=24", want: model.MetadataFilter{Key: "fps", Op: "<=", Value: "24"}},
		{in: "fps < 24", want: model.MetadataFilter{Key: "fps", Op: "<", Value: "24"}},
		{in: "fps>24", want: model.MetadataFilter{Key: "fps", Op: ">", Value: "24"}},
		{in: "status=final", want: model.MetadataFilter{Key: "status", Op: "=", Value: "final"}},
		{in: "status!=wip", want: model.MetadataFilter{Key: "status", Op: "!=", Value: "wip"}},
		{in: "range=a>b", want: model.MetadataFilter{Key: "range", Op: "=", Value: "a>b"}},
		{in: "status", wantErr: true},
		{in: "=final", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMetadataFilter(tt.in)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidQuery) {
					t.Errorf("parseMetadataFilter() error = %v, want ErrInvalidQuery", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMetadataFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("parseMetadataFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
