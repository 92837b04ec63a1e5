package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// ExtractedDocument is the plain text of an uploaded file. PDF text carries
// one page marker per page so lessons can be generated page by page.
type ExtractedDocument struct {
	Text      string
	PageCount int
}

type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

func (s *FileExtractService) Extract(filename string, data []byte) (*ExtractedDocument, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md":
		return single(s.extractTXT(data))
	case ".pdf":
		return s.extractPDF(data)
	case ".docx":
		return single(s.extractDOCX(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
}

func single(text string, err error) (*ExtractedDocument, error) {
	if err != nil {
		return nil, err
	}
	return &ExtractedDocument{Text: text, PageCount: 1}, nil
}

func (s *FileExtractService) extractTXT(data []byte) (string, error) {
	text := normalizeExtractedText(string(data))
	if text == "" {
		return "", fmt.Errorf("text file is empty")
	}
	return text, nil
}

func (s *FileExtractService) extractPDF(data []byte) (*ExtractedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	pages := 0
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		content = normalizeExtractedText(content)
		if content == "" {
			continue
		}

		if pages > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PageMarker(pageIndex))
		b.WriteString(content)
		pages++
	}

	if pages == 0 {
		return nil, fmt.Errorf("no extractable text found in pdf")
	}
	return &ExtractedDocument{Text: b.String(), PageCount: totalPage}, nil
}

func (s *FileExtractService) extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var documentXML []byte
	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		documentXML, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		break
	}

	if len(documentXML) == 0 {
		return "", fmt.Errorf("docx document.xml not found")
	}

	text := normalizeExtractedText(stripDOCXML(documentXML))
	if text == "" {
		return "", fmt.Errorf("no extractable text found in docx")
	}
	return text, nil
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripDOCXML(src []byte) string {
	s := string(src)

	// DOCX paragraphs and line breaks
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	s = xmlTagPattern.ReplaceAllString(s, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
	return replacer.Replace(s)
}

// normalizeExtractedText unifies line endings, trims each line and collapses
// runs of blank lines into one.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	emptyCount := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			b.WriteString("\n")
			continue
		}
		emptyCount = 0
		b.WriteString(trimmed)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}
