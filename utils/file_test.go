package utils

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = w.Close()

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestDiskStoreUpload(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "http://localhost:5200/uploads/")
	if err != nil {
		t.Fatal(err)
	}
	url, err := store.Upload(context.Background(), fileHeader(t, "deck.pdf", "slides"), "attachments/h1/deck.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:5200/uploads/attachments/h1/deck.pdf" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(root, "attachments", "h1", "deck.pdf"))
	if err != nil || string(data) != "slides" {
		t.Fatalf("stored %q, %v", data, err)
	}
}

func TestDiskStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "http://x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Upload(context.Background(), fileHeader(t, "a.txt", "x"), "../../etc/passwd"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}
