package services

import (
	"strings"
	"testing"

	"learnai-backend/internal/models"
)

func TestPromptsEndWithDocumentText(t *testing.T) {
	const doc = "DOCUMENT-BODY-MARKER"

	prompts := map[string]string{
		"summary":     SummaryPrompt(DefaultSummaryClasses, doc),
		"flashcards":  FlashcardPrompt(DefaultFlashcardCount, doc),
		"quiz":        QuizPrompt(5, doc),
		"notes":       NotesPrompt(doc),
		"audio":       AudioScriptPrompt(models.LanguageEnglish, models.AudioModeSummary, doc),
		"chat":        ChatSystemInstruction(doc),
		"explanation": ExplanationPrompt("entropy", doc),
	}

	for name, p := range prompts {
		if !strings.HasSuffix(p, doc) {
			t.Fatalf("%s prompt does not end with the document text", name)
		}
		if strings.Count(p, doc) != 1 {
			t.Fatalf("%s prompt embeds the document more than once", name)
		}
	}
}

func TestSummaryPrompt_SectionsAndClasses(t *testing.T) {
	classes := SummaryClasses{Header: "H", Paragraph: "P", List: "U", ListItem: "L", Emphasis: "E"}
	p := SummaryPrompt(classes, "text")

	for _, tag := range []string{`<h3 class="H">`, `<p class="P">`, `<ul class="U">`, `<li class="L">`, `<span class="E">`} {
		if !strings.Contains(p, tag) {
			t.Fatalf("summary prompt missing %s", tag)
		}
	}

	last := -1
	for _, section := range SummarySections {
		idx := strings.Index(p, section)
		if idx < 0 || idx < last {
			t.Fatalf("section %q missing or out of order", section)
		}
		last = idx
	}
}

func TestQuizPrompt_DefaultCount(t *testing.T) {
	if !strings.Contains(QuizPrompt(0, "x"), "Generate 5 multiple-choice") {
		t.Fatalf("expected default question count of 5")
	}
	if !strings.Contains(QuizPrompt(12, "x"), "Generate 12 multiple-choice") {
		t.Fatalf("expected caller-supplied question count")
	}
	if !strings.Contains(FlashcardPrompt(0, "x"), "exactly 10") {
		t.Fatalf("expected flashcard count of 10")
	}
}

func TestAudioScriptPrompt_Variants(t *testing.T) {
	hinglish := AudioScriptPrompt(models.LanguageHinglish, models.AudioModeDetail, "x")
	if !strings.Contains(hinglish, "Hinglish") || !strings.Contains(hinglish, "in depth") {
		t.Fatalf("unexpected hinglish detail prompt: %s", hinglish)
	}

	english := AudioScriptPrompt(models.LanguageEnglish, models.AudioModeSummary, "x")
	if strings.Contains(english, "Hinglish") || !strings.Contains(english, "concise") {
		t.Fatalf("unexpected english summary prompt: %s", english)
	}
}

func TestNotesPrompt_ForbidsMarkdown(t *testing.T) {
	p := NotesPrompt("x")
	for _, want := range []string{"(#)", "(*)", "(-)", "UPPERCASE", "Title Case", "EXAM TIP:"} {
		if !strings.Contains(p, want) {
			t.Fatalf("notes prompt missing %q", want)
		}
	}
}

func TestSchemasDeclareRequiredFields(t *testing.T) {
	items := FlashcardSchema.Properties["flashcards"].Items
	if len(items.Required) != 2 {
		t.Fatalf("flashcard schema should require front and back")
	}
	q := QuizSchema.Properties["questions"].Items
	if _, ok := q.Properties["correctAnswer"]; !ok {
		t.Fatalf("quiz schema missing correctAnswer")
	}
}
