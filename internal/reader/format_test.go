package reader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractBook(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("plain text", func(t *testing.T) {
		content := "Hello world this is a test."
		path := filepath.Join(tmpDir, "test.txt")
		os.WriteFile(path, []byte(content), 0644)

		src, err := ExtractBook(path)
		if err != nil {
			t.Fatalf("ExtractBook: %v", err)
		}
		if len(src.Chapters) != 1 {
			t.Fatalf("got %d chapters, want 1", len(src.Chapters))
		}
		if got := src.Chapters[0].Text; got != content {
			t.Errorf("got %q, want %q", got, content)
		}
		if src.Title != "test" {
			t.Errorf("title = %q, want test", src.Title)
		}
	})

	t.Run("markdown extension", func(t *testing.T) {
		content := "# Only\nSome markdown content"
		path := filepath.Join(tmpDir, "test.md")
		os.WriteFile(path, []byte(content), 0644)

		src, err := ExtractBook(path)
		if err != nil {
			t.Fatalf("ExtractBook: %v", err)
		}
		if len(src.TOC) != 1 || src.TOC[0].Title != "Only" {
			t.Errorf("TOC = %+v", src.TOC)
		}
	})

	t.Run("normalises to NFC", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nfc.txt")
		os.WriteFile(path, []byte("cafe\u0301\r\nbar"), 0644)

		src, err := ExtractBook(path)
		if err != nil {
			t.Fatalf("ExtractBook: %v", err)
		}
		if got := src.Chapters[0].Text; got != "caf\u00e9\nbar" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty markdown", func(t *testing.T) {
		path := filepath.Join(tmpDir, "empty.md")
		os.WriteFile(path, nil, 0644)

		if _, err := ExtractBook(path); err == nil {
			t.Error("expected error for a book without chapters")
		}
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := ExtractBook(filepath.Join(tmpDir, "nonexistent.txt"))
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestEPUBFormat(t *testing.T) {
	f := &EPUBFormat{}
	if f.Name() != "EPUB" {
		t.Errorf("Name() = %q, want EPUB", f.Name())
	}
	if exts := f.Extensions(); len(exts) != 1 || exts[0] != ".epub" {
		t.Errorf("Extensions() = %v, want [.epub]", exts)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) == 0 {
		t.Error("no formats registered")
	}
	for _, f := range formats {
		if f == "EPUB (.epub)" {
			return
		}
	}
	t.Errorf("EPUB not registered: %v", formats)
}
