package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to any text cut down to its admitted length.
const TruncationMarker = "... [Truncated]"

// Maximum admitted characters per task.
const (
	LimitSummary     = 100000
	LimitChat        = 100000
	LimitFlashcards  = 50000
	LimitQuiz        = 50000
	LimitNotes       = 50000
	LimitAudio       = 30000
	LimitExplanation = 15000
)

// PrepareText bounds text to limit characters (code points). Text within the
// limit is returned unchanged; longer text is cut and ends with TruncationMarker.
// The second return value reports whether anything was dropped.
func PrepareText(text string, limit int) (string, bool) {
	if text == "" {
		return "", false
	}
	if limit < 0 {
		limit = 0
	}
	if len(text) <= limit || utf8.RuneCountInString(text) <= limit {
		return text, false
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + TruncationMarker, true
		}
		n++
	}
	return text, false
}

// Page is one page of extracted document text.
type Page struct {
	Number  int
	Content string
}

var pageMarkerPattern = regexp.MustCompile(`--- Page (\d+) ---\n`)

// SplitPages splits extracted text on "--- Page N ---" markers. Text without
// markers is treated as a single first page.
func SplitPages(text string) []Page {
	locs := pageMarkerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []Page{{Number: 1, Content: text}}
	}

	pages := make([]Page, 0, len(locs))
	for i, loc := range locs {
		num, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		pages = append(pages, Page{Number: num, Content: strings.TrimSpace(text[loc[1]:end])})
	}
	return pages
}

// PageMarker renders the marker SplitPages recognises.
func PageMarker(n int) string {
	return "--- Page " + strconv.Itoa(n) + " ---\n"
}
