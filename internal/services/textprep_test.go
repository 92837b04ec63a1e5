package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPrepareText_IdentityUnderLimit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
	}{
		{"empty", "", 10},
		{"short", "hello", 10},
		{"exact", "0123456789", 10},
		{"multibyte within limit", "नमस्ते दुनिया", 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, truncated := PrepareText(tc.text, tc.limit)
			if got != tc.text {
				t.Errorf("Expected %q unchanged, got %q", tc.text, got)
			}
			if truncated {
				t.Error("Expected truncated=false")
			}
		})
	}
}

func TestPrepareText_OverLimit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
	}{
		{"ascii", strings.Repeat("a", 25), 10},
		{"multibyte", strings.Repeat("é", 25), 10},
		{"zero limit", "abc", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, truncated := PrepareText(tc.text, tc.limit)
			if !truncated {
				t.Error("Expected truncated=true")
			}
			want := tc.limit + utf8.RuneCountInString(TruncationMarker)
			if n := utf8.RuneCountInString(got); n != want {
				t.Errorf("Expected %d characters, got %d", want, n)
			}
			if !strings.HasSuffix(got, TruncationMarker) {
				t.Errorf("Expected marker suffix, got %q", got)
			}
		})
	}
}

func TestPrepareText_SummaryScenario(t *testing.T) {
	text := strings.Repeat("x", 150000)

	got, truncated := PrepareText(text, LimitSummary)

	if !truncated {
		t.Fatal("Expected truncation")
	}
	if len(got) != LimitSummary+len(TruncationMarker) {
		t.Fatalf("Expected length %d, got %d", LimitSummary+len(TruncationMarker), len(got))
	}
	if got[LimitSummary:] != TruncationMarker {
		t.Fatalf("Expected tail to be the marker, got %q", got[LimitSummary:])
	}
}

func TestSplitPages(t *testing.T) {
	text := PageMarker(1) + "first page\n" + PageMarker(2) + "second page\n"

	pages := SplitPages(text)
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[0].Content != "first page" {
		t.Errorf("Unexpected first page: %+v", pages[0])
	}
	if pages[1].Number != 2 || pages[1].Content != "second page" {
		t.Errorf("Unexpected second page: %+v", pages[1])
	}
}

func TestSplitPages_NoMarkers(t *testing.T) {
	pages := SplitPages("plain text")
	if len(pages) != 1 || pages[0].Number != 1 || pages[0].Content != "plain text" {
		t.Fatalf("Expected single page 1, got %+v", pages)
	}

	if got := SplitPages("   "); got != nil {
		t.Fatalf("Expected no pages for blank text, got %+v", got)
	}
}
