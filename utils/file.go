package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps attachments on local disk. Used in development when R2 is not
// configured; files are served from /uploads.
type DiskStore struct {
	Root    string
	BaseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}
	return &DiskStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the file to Root/key and returns BaseURL/key.
func (d *DiskStore) Upload(_ context.Context, fileHeader *multipart.FileHeader, key string) (string, error) {
	destPath, err := d.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := SaveFile(fileHeader, destPath); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return d.BaseURL + "/" + filepath.ToSlash(key), nil
}

// pathFor rejects keys that would escape Root.
func (d *DiskStore) pathFor(key string) (string, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", err
	}
	p := filepath.Join(root, filepath.FromSlash(key))
	if p != root && !strings.HasPrefix(p, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

// SaveFile saves the uploaded file to the given destination path
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}
