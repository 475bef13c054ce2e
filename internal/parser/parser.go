package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gmtext "github.com/yuin/goldmark/text"

	"docchat/internal/models"
)

// Extractor turns a file on disk into plain text.
type Extractor interface {
	ExtractText(filePath string) (string, error)
}

// FileExtractor picks a reader by file extension.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

var extractors = map[string]func(string) (string, error){
	".pdf":  parsePDF,
	".docx": parseDOCX,
	".txt":  parseText,
	".md":   parseMarkdown,
	".xlsx": parseXLSX,
	".xlsm": parseXLSM,
}

// SupportedExtensions lists the extensions ExtractText accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt", ".md", ".xlsx", ".xlsm"}
}

// ExtractText returns the plain text of filePath. Unknown extensions fail
// with models.ErrUnsupportedFileType; reader failures are wrapped in
// models.ErrExtraction.
func (e *FileExtractor) ExtractText(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	parse, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFileType, ext)
	}

	content, err := parse(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrExtraction, filepath.Base(filePath), err)
	}
	log.Debug().Str("file", filePath).Str("format", ext).Int("bytes", len(content)).Msg("Extracted text")
	return content, nil
}

// pages are joined with a newline after each page
func parsePDF(filePath string) (content string, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			text.WriteString("\n")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func parseDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document.xml body
	return docxParagraphs(r.Editable().GetContent()), nil
}

var (
	docxParagraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>|<w:p/>`)
	docxRunTextRe   = regexp.MustCompile(`(?s)<w:t(?: [^>]*)?>(.*?)</w:t>|<w:tab/>|<w:br/>`)
	xmlEntities     = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")
)

// docxParagraphs joins the text of every <w:p> with a newline after each
// paragraph.
func docxParagraphs(xmlContent string) string {
	var text strings.Builder
	for _, para := range docxParagraphRe.FindAllString(xmlContent, -1) {
		for _, m := range docxRunTextRe.FindAllStringSubmatch(para, -1) {
			switch m[0] {
			case "<w:tab/>":
				text.WriteString("\t")
			case "<w:br/>":
				text.WriteString("\n")
			default:
				text.WriteString(xmlEntities.Replace(m[1]))
			}
		}
		text.WriteString("\n")
	}
	return text.String()
}

func parseText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseMarkdown(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return markdownToText(data), nil
}

// markdownToText walks the goldmark AST and keeps only the readable text,
// one line per block.
func markdownToText(source []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gmtext.NewReader(source))

	var out strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				out.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					out.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				out.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					line := lines.At(i)
					out.Write(line.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		case *extast.TableCell:
			if !entering {
				out.WriteString("\t")
			}
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock, *extast.TableRow, *extast.TableHeader:
			if !entering {
				out.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return out.String()
}

func parseXLSX(filePath string) (string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString(strings.Join(cells, "\t"))
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}

func parseXLSM(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text bytes.Buffer
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
	}
	return text.String(), nil
}
