package services

import (
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"learnai-backend/internal/models"
)

// DefaultFlashcardCount is how many cards a flashcard request asks for.
const DefaultFlashcardCount = 10

// DefaultQuizQuestionCount applies when the caller does not pick a count.
const DefaultQuizQuestionCount = 5

// SummaryClasses holds the class attribute of each structural summary tag.
// The values are presentation detail only.
type SummaryClasses struct {
	Header    string
	Paragraph string
	List      string
	ListItem  string
	Emphasis  string
}

var DefaultSummaryClasses = SummaryClasses{
	Header:    "text-xl font-bold text-indigo-700 dark:text-indigo-400 mt-8 mb-4 border-b border-indigo-200 dark:border-indigo-700 pb-2",
	Paragraph: "text-gray-900 dark:text-gray-100 mb-4 leading-relaxed text-justify text-base",
	List:      "list-disc pl-6 space-y-2 mb-4 text-gray-900 dark:text-gray-100",
	ListItem:  "pl-1",
	Emphasis:  "font-bold text-black dark:text-white bg-indigo-100 dark:bg-indigo-900/50 px-1 rounded",
}

// Summary section titles, in output order.
var SummarySections = []string{
	"Executive Overview",
	"In-Depth Analysis",
	"Key Concepts & Takeaways",
}

func SummaryPrompt(classes SummaryClasses, text string) string {
	var b strings.Builder

	// Layer 1: Role
	b.WriteString("You are an expert academic synthesizer.\n")
	b.WriteString("Goal: Create an extremely detailed, extensive, and comprehensive summary of the provided document. Do NOT make it short.\n\n")

	// Layer 2: Coverage
	b.WriteString("Instructions:\n")
	b.WriteString("1. Coverage: The summary MUST cover the ENTIRE document depth. Do not prioritize brevity. Explain every major concept found in the text.\n")
	b.WriteString("2. Detail Level: High. This summary should be detailed enough to study from without reading the original text.\n")
	b.WriteString("3. Clarity: Write in clear, professional language.\n")

	// Layer 3: Format contract
	b.WriteString("4. Format: Return the output as a valid HTML string (fragment only, no <html> or <body> tags). Do not wrap it in markdown code fences.\n")
	b.WriteString("5. Styling: Use ONLY the following HTML tags with these exact class attributes:\n")
	fmt.Fprintf(&b, "   - Section Headers: <h3 class=\"%s\">\n", classes.Header)
	fmt.Fprintf(&b, "   - Paragraphs: <p class=\"%s\">\n", classes.Paragraph)
	fmt.Fprintf(&b, "   - Lists: <ul class=\"%s\">\n", classes.List)
	fmt.Fprintf(&b, "   - List Items: <li class=\"%s\">\n", classes.ListItem)
	fmt.Fprintf(&b, "   - Key Terms/Emphasis: <span class=\"%s\">\n\n", classes.Emphasis)

	// Layer 4: Structure
	b.WriteString("Structure the summary as exactly these sections, in this order:\n")
	fmt.Fprintf(&b, "1. <h3 ...>%s</h3>: A detailed overview of the document's purpose.\n", SummarySections[0])
	fmt.Fprintf(&b, "2. <h3 ...>%s</h3>: Break down the document into its main sections. Dedicate multiple paragraphs to explaining the details of each section.\n", SummarySections[1])
	fmt.Fprintf(&b, "3. <h3 ...>%s</h3>: A comprehensive list of the most important concepts to remember.\n\n", SummarySections[2])

	// Layer 5: Document
	b.WriteString("Document Content:\n")
	b.WriteString(text)

	return b.String()
}

func FlashcardPrompt(count int, text string) string {
	if count <= 0 {
		count = DefaultFlashcardCount
	}

	var b strings.Builder
	b.WriteString("You are an expert flashcard creator.\n")
	fmt.Fprintf(&b, "Generate exactly %d high-quality flashcards based on the key concepts in the following text.\n\n", count)
	b.WriteString("CRITICAL: Return ONLY a JSON object of the form {\"flashcards\": [{\"front\": \"string\", \"back\": \"string\"}]}. No preamble, no markdown, no backticks.\n")
	b.WriteString("Front = the question or term. Back = the answer or definition. Both must be non-empty.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)

	return b.String()
}

func QuizPrompt(count int, text string) string {
	if count <= 0 {
		count = DefaultQuizQuestionCount
	}

	var b strings.Builder
	b.WriteString("You are an expert educational assessor.\n")
	fmt.Fprintf(&b, "Generate %d multiple-choice questions to test understanding of the following text.\n\n", count)
	b.WriteString("CRITICAL: Return ONLY a JSON object of the form ")
	b.WriteString(`{"questions": [{"question": "string", "options": ["string"], "correctAnswer": int, "explanation": "string"}]}`)
	b.WriteString(". No preamble, no markdown, no backticks.\n")
	b.WriteString("Each question has exactly 4 options. correctAnswer is the zero-based index of the correct option (0-3). ")
	b.WriteString("The explanation says why the correct answer is right and the others are wrong.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)

	return b.String()
}

func NotesPrompt(text string) string {
	var b strings.Builder

	b.WriteString("You are an expert tutor. Create extremely detailed, \"Exam-Topper\" quality study notes for the provided document.\n\n")
	b.WriteString("Goal: The student should be able to get top marks in an exam just by reading these notes.\n\n")

	b.WriteString("Formatting Rules:\n")
	b.WriteString("1. NO MARKDOWN SYMBOLS: Do NOT use hashtags (#), asterisks (*), or dashes (-) for formatting.\n")
	b.WriteString("2. Clean Text Structure:\n")
	b.WriteString("   Use UPPERCASE for Main Section Headings.\n")
	b.WriteString("   Use Title Case for Subheadings.\n")
	b.WriteString("   Use spacing and indentation to show structure.\n")
	b.WriteString("3. Content Quality:\n")
	b.WriteString("   Do not be brief. Be exhaustive.\n")
	b.WriteString("   Include every definition, formula, date, and key argument found in the text.\n")
	b.WriteString("   If the text has list items, include them all.\n")
	b.WriteString("   Add \"EXAM TIP:\" sections where relevant to highlight crucial info.\n\n")

	b.WriteString("Structure example:\n")
	b.WriteString("SECTION 1: INTRODUCTION\n")
	b.WriteString("   Key Concept: Definition of the term...\n\n")
	b.WriteString("   Details:\n")
	b.WriteString("   The detailed explanation goes here...\n\n")

	b.WriteString("Document content to process:\n")
	b.WriteString(text)

	return b.String()
}

func AudioScriptPrompt(language models.Language, mode models.AudioMode, text string) string {
	var b strings.Builder

	b.WriteString("You are an AI teacher preparing a spoken lecture script.\n\n")

	switch language {
	case models.LanguageHinglish:
		b.WriteString("Language style: Hinglish. This means a natural, conversational mix of Hindi and English. Use Hindi for explanations to make it easy to understand, but keep technical terms in English. Speak like a friendly Indian teacher.\n")
	default:
		b.WriteString("Language style: English. Speak naturally, clearly, and professionally like a university professor.\n")
	}

	switch mode {
	case models.AudioModeDetail:
		b.WriteString("Task: Explain the content of the text segment in depth. Do not summarize briefly. Explain concepts, define terms, and walk through arguments in detail. Treat this as a dedicated part of a lecture.\n\n")
	default:
		b.WriteString("Task: Provide a concise, high-level summary of the entire document text provided. Focus on the main purpose, key findings, and conclusion. Keep it under 2 minutes of spoken time.\n\n")
	}

	b.WriteString("Constraints:\n")
	b.WriteString("Write ONLY the spoken text.\n")
	b.WriteString("Do not include headers, stage directions, or markdown.\n")
	b.WriteString("Make it engaging and educational.\n\n")

	b.WriteString("Text Content:\n")
	b.WriteString(text)

	return b.String()
}

func ChatSystemInstruction(text string) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI tutor. You have access to the following document content. ")
	b.WriteString("Answer the user's questions based strictly on this content. ")
	b.WriteString("If the answer is not in the document, say so explicitly.\n\n")
	b.WriteString("Document Content:\n")
	b.WriteString(text)
	return b.String()
}

func ExplanationPrompt(concept, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a patient teacher. Explain the concept %q simply and clearly for a beginner, based on the context provided below.\n\n", concept)
	b.WriteString("Context:\n")
	b.WriteString(text)
	return b.String()
}

// FlashcardSchema is the structured-output contract for flashcard generation.
var FlashcardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"flashcards": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"front": {Type: genai.TypeString, Description: "The question or term"},
					"back":  {Type: genai.TypeString, Description: "The answer or definition"},
				},
				Required: []string{"front", "back"},
			},
		},
	},
	Required: []string{"flashcards"},
}

// QuizSchema is the structured-output contract for quiz generation.
var QuizSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {Type: genai.TypeString},
					"options": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"correctAnswer": {Type: genai.TypeInteger, Description: "Index of the correct option (0-3)"},
					"explanation":   {Type: genai.TypeString, Description: "Detailed explanation of why the correct answer is right and others are wrong."},
				},
				Required: []string{"question", "options", "correctAnswer", "explanation"},
			},
		},
	},
	Required: []string{"questions"},
}
