package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoaderLoadsDomainDirectories(t *testing.T) {
	docsDir := t.TempDir()

	writeDoc(t, filepath.Join(docsDir, "service_cloud"), "tickets.md", "# Ticket routing\nRouting rules live in the admin console.")
	writeDoc(t, filepath.Join(docsDir, "fsm"), "work_orders.txt", "Work orders are dispatched to technicians.")
	writeDoc(t, filepath.Join(docsDir, "cpi"), "iflow.md", "iFlows connect systems.")

	loader := NewLoader(docsDir)
	files, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, files, 3)

	byDomain := make(map[domain.Domain]File)
	for _, f := range files {
		byDomain[f.Domain] = f
	}

	sc := byDomain[domain.ServiceCloud]
	assert.Equal(t, "markdown", sc.FileType)
	assert.Equal(t, "tickets.md", sc.SourceFile())
	assert.Contains(t, sc.Content, "Routing rules")

	fsm := byDomain[domain.FSM]
	assert.Equal(t, "text", fsm.FileType)
	assert.Contains(t, fsm.Content, "technicians")
}

func TestLoaderRecursesSubdirectories(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, filepath.Join(docsDir, "cpq", "pricing", "advanced"), "rules.md", "Pricing rule details.")

	loader := NewLoader(docsDir)
	files, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, domain.CPQ, files[0].Domain)
	assert.Equal(t, "rules.md", files[0].SourceFile())
}

func TestLoaderIgnoresUnknownExtensions(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, filepath.Join(docsDir, "sales_cloud"), "leads.md", "Lead conversion notes.")
	writeDoc(t, filepath.Join(docsDir, "sales_cloud"), "export.csv", "id,name\n1,Lead")
	writeDoc(t, filepath.Join(docsDir, "sales_cloud"), "image.png", "not really an image")

	loader := NewLoader(docsDir)
	files, err := loader.Load()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "leads.md", files[0].SourceFile())
}

func TestLoaderSkipsMissingDomains(t *testing.T) {
	docsDir := t.TempDir()
	writeDoc(t, filepath.Join(docsDir, "fsm"), "scheduling.txt", "Scheduling board usage.")

	loader := NewLoader(docsDir)
	files, err := loader.Load()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestLoaderEmptyCorpus(t *testing.T) {
	loader := NewLoader(t.TempDir())
	_, err := loader.Load()
	assert.ErrorContains(t, err, "no loadable documents")
}

func TestFileTypeFor(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{path: "doc.pdf", want: "pdf", ok: true},
		{path: "DOC.PDF", want: "pdf", ok: true},
		{path: "notes.md", want: "markdown", ok: true},
		{path: "readme.txt", want: "text", ok: true},
		{path: "data.json", ok: false},
		{path: "noext", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := fileTypeFor(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
