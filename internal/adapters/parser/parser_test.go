package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_PlainTextPassthrough(t *testing.T) {
	p := NewFileParser()
	content := "Line one.\nLine two.\n"
	for _, name := range []string{"doc.txt", "doc.md", "doc.markdown"} {
		path := writeTemp(t, name, content)
		got, err := p.Parse(context.Background(), path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if got != content {
			t.Errorf("%s: content altered: %q", name, got)
		}
	}
}

func TestParse_MissingFile(t *testing.T) {
	p := NewFileParser()
	if _, err := p.Parse(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_CSVRowRendering(t *testing.T) {
	p := NewFileParser()
	path := writeTemp(t, "people.csv", "Name,Age\nAlice,30\nBob,41\n")

	got, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Name: Alice", "Age: 30", "Name: Bob", "Age: 41"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "Name: Alice") > strings.Index(got, "Name: Bob") {
		t.Error("rows rendered out of order")
	}
}

func TestParse_CSVQuotedFieldsAndRaggedRows(t *testing.T) {
	p := NewFileParser()
	path := writeTemp(t, "notes.csv", "Title,Body\n\"Report, Q3\",\"Revenue up\"\nExtraRow,one,two\n")

	got, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Title: Report, Q3") {
		t.Errorf("quoted field mangled:\n%s", got)
	}
	// Fields past the header get positional names.
	if !strings.Contains(got, "column 3: two") {
		t.Errorf("ragged row not handled:\n%s", got)
	}
}

func TestParse_CSVEmptyFile(t *testing.T) {
	p := NewFileParser()
	path := writeTemp(t, "empty.csv", "")
	got, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestParse_JSONPrettyPrinted(t *testing.T) {
	p := NewFileParser()
	path := writeTemp(t, "data.json", `{"name":"Alice","tags":["a","b"]}`)

	got, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "\"name\": \"Alice\"") {
		t.Errorf("expected indented rendering:\n%s", got)
	}
}

func TestParse_InvalidJSONFallsBackToRaw(t *testing.T) {
	p := NewFileParser()
	raw := "{this is not json"
	path := writeTemp(t, "broken.json", raw)

	got, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != raw {
		t.Errorf("expected raw fallback, got %q", got)
	}
}

func TestParse_CancelledContext(t *testing.T) {
	p := NewFileParser()
	path := writeTemp(t, "doc.txt", "content")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Parse(ctx, path); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestSupportedExtensions(t *testing.T) {
	got := NewFileParser().SupportedExtensions()
	want := map[string]bool{".txt": true, ".md": true, ".markdown": true, ".csv": true, ".json": true, ".pdf": true}
	if len(got) != len(want) {
		t.Fatalf("got %d extensions, want %d", len(got), len(want))
	}
	for _, ext := range got {
		if !want[ext] {
			t.Errorf("unexpected extension %q", ext)
		}
	}
}
