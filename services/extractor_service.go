package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	if err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY")); err != nil {
		fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
	}
}

// ExtractPages reads a document and returns its text content per page or
// section. Pages without a text layer are skipped; a fully empty result is
// the caller's signal that the document has no extractable text.
func ExtractPages(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".md":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, nil
		}
		return []string{string(content)}, nil
	case ".pdf":
		return extractPagesFromPDF(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractPagesFromPDF uses UniPDF to pull the text layer of every page.
func extractPagesFromPDF(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("count pages of %s: %w", path, err)
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("get page %d of %s: %w", i, path, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("extract text of page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			// Image-only page, nothing to index.
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}
