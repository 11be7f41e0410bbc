package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DocxExtractor reads the paragraphs of word/document.xml from a .docx
// archive. Paragraphs are separated by blank lines.
type DocxExtractor struct{}

func (DocxExtractor) Name() string { return "docx" }

func (DocxExtractor) Extract(_ context.Context, path string) ([]Entry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml in %s: %w", path, err)
		}
		defer rc.Close()

		paras, err := docxParagraphs(rc)
		if err != nil {
			return nil, fmt.Errorf("parse docx %s: %w", path, err)
		}
		text := strings.Join(paras, "\n\n")
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []Entry{{Text: text}}, nil
	}
	return nil, fmt.Errorf("docx %s: word/document.xml not found", path)
}

func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if p := strings.TrimSpace(cur.String()); p != "" {
					paras = append(paras, p)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
