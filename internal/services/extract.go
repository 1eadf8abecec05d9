package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text out of an uploaded document. PDF, DOCX and
// Markdown/plain text are supported; any other format yields "".
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".md", ".markdown", ".txt":
		content, err := os.ReadFile(path)

		if err != nil {
			return "", err
		}

		return string(content), nil
	default:
		return "", nil
	}
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)

	if err != nil {
		return "", err
	}

	defer file.Close()

	plain, err := reader.GetPlainText()

	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)

	if err != nil {
		return "", err
	}

	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}

		reader, err := entry.Open()

		if err != nil {
			return "", err
		}

		defer reader.Close()

		content, err := io.ReadAll(reader)

		if err != nil {
			return "", err
		}

		return docxText(content)
	}

	return "", nil
}

func docxText(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var (
		builder   strings.Builder
		inTextRun bool
	)

	for {
		token, err := decoder.Token()

		if err == io.EOF {
			break
		}

		if err != nil {
			return "", err
		}

		switch element := token.(type) {
		case xml.StartElement:
			if element.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			if element.Name.Local == "t" {
				inTextRun = false
			}
			if element.Name.Local == "p" {
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(element)
			}
		}
	}

	return builder.String(), nil
}
