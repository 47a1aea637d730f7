package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// FileExtensions are the formats corpus documents are written in, assigned round robin. PDF is
// left out because there is no small PDF with extractable text to generate.
var FileExtensions = []string{".txt", ".md", ".rst", ".docx", ".xlsx", ".html"}

// Encode renders a title and body as a file of the given extension. Every format extracts back
// to the title on the first line followed by the body.
func Encode(ext, title, body string) ([]byte, error) {
	switch ext {
	case ".txt", ".rst":
		return []byte(title + "\n\n" + body + "\n"), nil
	case ".md":
		return []byte("# " + title + "\n\n" + body + "\n"), nil
	case ".docx":
		return docxFile(title, body)
	case ".xlsx":
		return xlsxFile(title, body)
	case ".html":
		return []byte(fmt.Sprintf("<html><head><style>p{margin:0}</style></head><body><h1>%s</h1>\n<p>%s</p></body></html>",
			html.EscapeString(title), html.EscapeString(body))), nil
	default:
		return nil, fmt.Errorf("no fixture encoder for %q", ext)
	}
}

func docxFile(paragraphs ...string) ([]byte, error) {
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>")
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			return nil, err
		}
		body.WriteString("</w:t></w:r></w:p>")
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	if err != nil {
		return nil, err
	}
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`
	if _, err := fw.Write([]byte(doc)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xlsxFile(rows ...string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		if err := f.SetCellValue("Sheet1", fmt.Sprintf("A%d", i+1), r); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCorpus writes docs under dir, document i as Key plus FileExtensions[i%len], and returns
// the written path for each document key.
func WriteCorpus(dir string, docs []Document) (map[string]string, error) {
	paths := make(map[string]string, len(docs))
	for i, d := range docs {
		ext := FileExtensions[i%len(FileExtensions)]
		content, err := Encode(ext, d.Title, d.Body)
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, d.Key+ext)
		if err := os.WriteFile(p, content, 0o644); err != nil {
			return nil, err
		}
		paths[d.Key] = p
	}
	return paths, nil
}
