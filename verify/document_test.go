package verify

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "positive offset",
			input: "D:20240101120000+01'00'",
			want:  time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "negative offset",
			input: "D:20240101120000-05'30'",
			want:  time.Date(2024, 1, 1, 17, 30, 0, 0, time.UTC),
		},
		{
			name:  "zero offset",
			input: "D:20240101000000+00'00'",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "Z",
			input: "D:20240101000000Z",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "Z written out",
			input: "D:20240101000000Z00'00'",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "no offset",
			input: "D:20240615083000",
			want:  time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name:  "offset without trailing apostrophe",
			input: "D:20240101120000+0100",
			want:  time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "D:20240615",
			want:  time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "year only without prefix",
			input: "2024",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "invalid", input: "invalid date", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "bad offset", input: "D:20240101120000*01'00'", wantErr: true},
		{name: "offset out of range", input: "D:20240101120000+25'00'", wantErr: true},
		{name: "odd length", input: "D:2024010112000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(st *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					st.Errorf("expected an error, got %s", got.Format(time.RFC3339))
				}
				return
			}
			if err != nil {
				st.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				st.Errorf("parseDate(%q) = %s, want %s", tt.input, got.UTC(), tt.want)
			}
		})
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"comma and space separated", "keyword1, keyword2, keyword3", []string{"keyword1", "keyword2", "keyword3"}},
		{"comma separated", "keyword1,keyword2,keyword3", []string{"keyword1", "keyword2", "keyword3"}},
		{"semicolon separated", "keyword1; keyword2 ;keyword3", []string{"keyword1", "keyword2", "keyword3"}},
		{"colon separated", "keyword1:keyword2: keyword3", []string{"keyword1", "keyword2", "keyword3"}},
		{"space separated", "keyword1  keyword2 keyword3", []string{"keyword1", "keyword2", "keyword3"}},
		{"phrases", "signed pdf, detached signature", []string{"signed pdf", "detached signature"}},
		{"single keyword", "single_keyword", []string{"single_keyword"}},
		{"empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(st *testing.T) {
			if got := parseKeywords(tt.input); !reflect.DeepEqual(got, tt.want) {
				st.Errorf("parseKeywords(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
