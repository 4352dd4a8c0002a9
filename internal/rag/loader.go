package rag

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
)

// File is one loadable documentation file with its extracted text
type File struct {
	Path     string
	Domain   domain.Domain
	FileType string
	Content  string
}

// SourceFile returns the base name used in chunk metadata
func (f *File) SourceFile() string {
	return filepath.Base(f.Path)
}

// Loader collects documentation files from per-domain directories under the
// docs root: docs/<domain>/**.{pdf,md,txt}
type Loader struct {
	docsDir string
}

// NewLoader creates a loader rooted at docsDir
func NewLoader(docsDir string) *Loader {
	return &Loader{docsDir: docsDir}
}

// Load walks every domain directory and extracts file contents. Missing
// domain directories are skipped with a warning; individual unreadable
// files are skipped likewise. An empty corpus is an error.
func (l *Loader) Load() ([]File, error) {
	var files []File

	for _, d := range domain.All() {
		domainDir := filepath.Join(l.docsDir, string(d))

		if _, err := os.Stat(domainDir); os.IsNotExist(err) {
			logger.Warnw("domain directory does not exist, skipping",
				"domain", d,
				"path", domainDir,
			)
			continue
		}

		loaded, err := l.loadDomain(domainDir, d)
		if err != nil {
			return nil, errors.Wrapf(err, "load domain %s", d)
		}

		logger.Infow("loaded domain docs",
			"domain", d,
			"files", len(loaded),
		)
		files = append(files, loaded...)
	}

	if len(files) == 0 {
		return nil, errors.Newf("no loadable documents under %s (expected docs/<domain>/*.{pdf,md,txt})", l.docsDir)
	}

	return files, nil
}

func (l *Loader) loadDomain(dir string, d domain.Domain) ([]File, error) {
	var files []File

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		fileType, ok := fileTypeFor(path)
		if !ok {
			return nil
		}

		content, err := extractContent(path, fileType)
		if err != nil {
			logger.Warnw("failed to load file, skipping",
				"path", path,
				"error", err,
			)
			return nil
		}

		files = append(files, File{
			Path:     path,
			Domain:   d,
			FileType: fileType,
			Content:  content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func fileTypeFor(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf", true
	case ".md":
		return "markdown", true
	case ".txt":
		return "text", true
	}
	return "", false
}

func extractContent(path, fileType string) (string, error) {
	if fileType == "pdf" {
		return extractPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read file")
	}
	return string(data), nil
}

// extractPDF pulls plain text page by page, joining pages with paragraph
// breaks so the chunker can split on them
func extractPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open pdf")
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warnw("failed to extract pdf page, skipping",
				"path", path,
				"page", i,
				"error", err,
			)
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return "", errors.New("pdf contains no extractable text")
	}

	return strings.Join(pages, "\n\n"), nil
}
