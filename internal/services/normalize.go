package services

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"learnai-backend/internal/models"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```[a-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")
	notesMarkers  = regexp.MustCompile(`^([ \t]*)(?:[-+*•][ \t]+|#{1,6}(?:[ \t]+|$))+`)
	// Emphasis pairs hug their text and are not glued to word characters,
	// so "m * a", "r ** 2" and "2*3*4" are left alone.
	strongEmphasis = regexp.MustCompile(`(?m)(^|[^\w*])\*\*([^\s*](?:[^*\n]*[^\s*])?)\*\*($|[^\w*])`)
	emEmphasis     = regexp.MustCompile(`(?m)(^|[^\w*])\*([^\s*](?:[^*\n]*[^\s*])?)\*($|[^\w*])`)
)

// Field aliases, tried in order. The first key holding a usable value wins.
var (
	flashcardListKeys = []string{"flashcards", "cards", "items"}
	flashcardFront    = []string{"front", "question", "term", "prompt"}
	flashcardBack     = []string{"back", "answer", "definition", "response"}

	quizListKeys    = []string{"questions", "quiz", "items"}
	quizQuestion    = []string{"question", "prompt", "text"}
	quizOptions     = []string{"options", "choices", "answers"}
	quizAnswer      = []string{"correctAnswer", "correct_answer", "correctIndex", "correct_index", "answerIndex", "answer"}
	quizExplanation = []string{"explanation", "rationale", "reason"}
)

// NormalizeReport describes what a normalizer did with one raw payload.
type NormalizeReport struct {
	Parsed   bool   // some JSON value was recovered
	Shape    string // "object", "array" or "" when no record list was found
	Total    int
	Accepted int
	Dropped  int
	// OddOptionCount counts accepted questions without exactly four options.
	OddOptionCount int
}

// StripFences removes a leading ```lang line and a trailing ``` marker,
// repeating until nothing changes.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := leadingFence.ReplaceAllString(s, "")
		next = trailingFence.ReplaceAllString(strings.TrimSpace(next), "")
		next = strings.TrimSpace(next)
		if next == s {
			return s
		}
		s = next
	}
}

// CleanHTML returns the summary fragment without any code fence wrapper.
func CleanHTML(raw string) string {
	return StripFences(raw)
}

// ExtractJSON recovers a JSON value from model output. It tries the whole
// payload, then the outermost {...} span, then the outermost [...] span.
func ExtractJSON(raw string) (any, bool) {
	candidates := jsonCandidates(raw)
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0], true
}

// jsonCandidates returns every value the ExtractJSON tiers can decode, in
// tier order.
func jsonCandidates(raw string) []any {
	s := StripFences(raw)
	if s == "" {
		return nil
	}
	var out []any
	if v, ok := decodeJSON(s); ok {
		out = append(out, v)
	}
	if v, ok := decodeSpan(s, "{", "}"); ok {
		out = append(out, v)
	}
	if v, ok := decodeSpan(s, "[", "]"); ok {
		out = append(out, v)
	}
	return out
}

// extractRecords picks the first decoded tier that holds a record list. A
// lone record inside a prose-wrapped array decodes as an object at the
// {...} tier, so later tiers still get a chance.
func extractRecords(raw string, keys []string) (records []any, shape string, parsed bool) {
	for _, v := range jsonCandidates(raw) {
		parsed = true
		if records, shape = recordList(v, keys); shape != "" {
			return records, shape, true
		}
	}
	return nil, "", parsed
}

func decodeJSON(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func decodeSpan(s, open, close string) (any, bool) {
	start := strings.Index(s, open)
	end := strings.LastIndex(s, close)
	if start < 0 || end <= start {
		return nil, false
	}
	return decodeJSON(s[start : end+1])
}

// NormalizeFlashcards turns raw model output into flashcards. Records without
// a non-empty front and back are dropped; the batch itself never fails.
func NormalizeFlashcards(raw string) ([]models.Flashcard, NormalizeReport) {
	var report NormalizeReport
	cards := []models.Flashcard{}

	records, shape, parsed := extractRecords(raw, flashcardListKeys)
	report.Parsed = parsed
	report.Shape = shape
	report.Total = len(records)

	for _, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			report.Dropped++
			continue
		}
		front := textField(m, flashcardFront)
		back := textField(m, flashcardBack)
		if front == "" || back == "" {
			report.Dropped++
			continue
		}
		cards = append(cards, models.Flashcard{
			ID:    uuid.New(),
			Front: front,
			Back:  back,
		})
	}
	report.Accepted = len(cards)
	return cards, report
}

// NormalizeQuiz turns raw model output into quiz questions. A question needs
// text, at least two non-empty options and an answer that resolves to an
// index inside the options; anything else is dropped.
func NormalizeQuiz(raw string) ([]models.QuizQuestion, NormalizeReport) {
	var report NormalizeReport
	questions := []models.QuizQuestion{}

	records, shape, parsed := extractRecords(raw, quizListKeys)
	report.Parsed = parsed
	report.Shape = shape
	report.Total = len(records)

	for _, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			report.Dropped++
			continue
		}
		q, ok := quizRecord(m)
		if !ok {
			report.Dropped++
			continue
		}
		if len(q.Options) != 4 {
			report.OddOptionCount++
		}
		questions = append(questions, q)
	}
	report.Accepted = len(questions)
	return questions, report
}

func quizRecord(m map[string]any) (models.QuizQuestion, bool) {
	question := textField(m, quizQuestion)
	if question == "" {
		return models.QuizQuestion{}, false
	}

	var rawOptions []any
	for _, k := range quizOptions {
		if arr, ok := m[k].([]any); ok {
			rawOptions = arr
			break
		}
	}
	if len(rawOptions) < 2 {
		return models.QuizQuestion{}, false
	}
	options := make([]string, 0, len(rawOptions))
	for _, o := range rawOptions {
		s := asText(o)
		if s == "" {
			return models.QuizQuestion{}, false
		}
		options = append(options, s)
	}

	answer := -1
	for _, k := range quizAnswer {
		if val, ok := m[k]; ok {
			answer = answerIndex(val, options)
			break
		}
	}
	if answer < 0 || answer >= len(options) {
		return models.QuizQuestion{}, false
	}

	return models.QuizQuestion{
		ID:            uuid.New(),
		Question:      question,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   textField(m, quizExplanation),
	}, true
}

// answerIndex resolves an answer given as an integer, the option text
// itself, a numeric string or a single option letter. Option text wins over
// a numeric reading, so "3" picks the option "3". Returns -1 otherwise.
func answerIndex(v any, options []string) int {
	switch a := v.(type) {
	case float64:
		if a != math.Trunc(a) || a < 0 || a > math.MaxInt32 {
			return -1
		}
		return int(a)
	case string:
		s := strings.TrimSpace(a)
		for i, o := range options {
			if strings.EqualFold(o, s) {
				return i
			}
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if len(s) == 1 {
			c := s[0] | 0x20
			if c >= 'a' && c <= 'z' {
				return int(c - 'a')
			}
		}
	}
	return -1
}

// recordList finds the record array in a parsed payload: either the root
// itself or the first alias key holding an array.
func recordList(v any, keys []string) ([]any, string) {
	switch t := v.(type) {
	case []any:
		return t, "array"
	case map[string]any:
		for _, k := range keys {
			if arr, ok := t[k].([]any); ok {
				return arr, "object"
			}
		}
	}
	return nil, ""
}

func textField(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s := asText(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// CleanNotes strips fences, leading heading and bullet markers, and
// emphasis asterisks the model produced despite the notes format rules.
// Asterisks used as operators in formulas survive.
func CleanNotes(raw string) string {
	s := raw
	for {
		next := cleanNotesOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanNotesOnce(s string) string {
	lines := strings.Split(StripFences(s), "\n")
	for i, line := range lines {
		lines[i] = notesMarkers.ReplaceAllString(line, "$1")
	}
	s = strongEmphasis.ReplaceAllString(strings.Join(lines, "\n"), "${1}${2}${3}")
	s = emEmphasis.ReplaceAllString(s, "${1}${2}${3}")
	return strings.TrimSpace(s)
}
