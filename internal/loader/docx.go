package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"

	"contractfill/constants"
)

// loadDocx reads word/document.xml from the ZIP archive and flattens
// paragraph text. Tables flatten too since their cells are paragraphs.
func (l *Loader) loadDocx(path string) (Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Result{Format: constants.DOCX}, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return Result{Format: constants.DOCX}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return Result{Format: constants.DOCX}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var out strings.Builder
	var currentText strings.Builder
	var inParagraph bool

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				currentText.Reset()
			case "tab":
				if inParagraph {
					currentText.WriteByte('\t')
				}
			case "br":
				if inParagraph {
					currentText.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inParagraph {
				currentText.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(currentText.String())
				if text == "" {
					continue
				}
				if out.Len() > 0 {
					out.WriteByte('\n')
				}
				out.WriteString(text)
			}
		}
	}

	return Result{
		Text:   out.String(),
		Pages:  1,
		Format: constants.DOCX,
		Method: "docx",
	}, nil
}
