package voice

import (
	"reflect"
	"strings"
	"testing"
)

func TestChunkTextGreeting(t *testing.T) {
	in := []string{"Hello! ", "I can help ", "you."}
	got := ChunkText(in)

	for _, chunk := range got {
		if !strings.HasSuffix(chunk, " ") {
			t.Errorf("chunk %q has no trailing space", chunk)
		}
	}
	if strip(strings.Join(got, "")) != strip(strings.Join(in, "")) {
		t.Fatalf("content changed: %q", got)
	}
	want := []string{"Hello!  ", "I can help  ", "you. "}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChunkText = %q, want %q", got, want)
	}
}

func TestChunkTextRules(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"accumulates until boundary", []string{"Hel", "lo", " there"}, []string{"Hello  ", "there "}},
		{"fragment starting with boundary", []string{"Hi", ", Jane"}, []string{"Hi, ", " Jane "}},
		{"buffer ending with boundary", []string{"Done.", "Bye"}, []string{"Done. ", "Bye "}},
		{"em dash counts", []string{"Wait", "—then"}, []string{"Wait— ", "then "}},
		{"empty input", nil, nil},
		{"empty fragments", []string{"", ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChunkText(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunkerKeepsContent(t *testing.T) {
	in := strings.SplitAfter("Your appointment is on December 5th at 9 AM. Check your email (jane@x.com) within 30 minutes!", "")
	got := ChunkText(in)
	if strip(strings.Join(got, "")) != strip(strings.Join(in, "")) {
		t.Fatalf("content dropped or duplicated: %q", got)
	}
}

func strip(s string) string {
	return strings.Join(strings.Fields(s), "")
}
