package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateAvatar(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{name: "jpeg ok", contentType: "image/jpeg", size: 1024},
		{name: "png ok", contentType: "image/png", size: MaxAvatarBytes},
		{name: "webp ok", contentType: "image/webp", size: 1},
		{name: "uppercase type ok", contentType: "IMAGE/PNG", size: 1},
		{name: "too large", contentType: "image/jpeg", size: MaxAvatarBytes + 1, wantErr: ErrAvatarTooLarge},
		{name: "gif rejected", contentType: "image/gif", size: 1, wantErr: ErrAvatarUnsupportedMIME},
		{name: "empty type rejected", contentType: "", size: 1, wantErr: ErrAvatarUnsupportedMIME},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAvatar(tc.contentType, tc.size)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateAvatar() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestFileAvatarStoreUpload(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	store := NewFileAvatarStore(fs, "http://localhost:8080/static/avatars/", func() string { return "pic" })

	url, err := store.UploadAvatar(context.Background(), "user-1", []byte("fake image"), "image/png")
	if err != nil {
		t.Fatalf("UploadAvatar() error: %v", err)
	}
	if url != "http://localhost:8080/static/avatars/user-1/pic.png" {
		t.Fatalf("UploadAvatar() url = %q", url)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "user-1", "pic.png"))
	if err != nil {
		t.Fatalf("reading stored avatar: %v", err)
	}
	if string(raw) != "fake image" {
		t.Fatalf("stored bytes = %q", raw)
	}
}

func TestFileAvatarStoreRejectsInvalid(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	store := NewFileAvatarStore(fs, "http://localhost", func() string { return "pic" })

	if _, err := store.UploadAvatar(context.Background(), "user-1", make([]byte, MaxAvatarBytes+1), "image/jpeg"); !errors.Is(err, ErrAvatarTooLarge) {
		t.Fatalf("UploadAvatar() oversized = %v, want ErrAvatarTooLarge", err)
	}
	if _, err := store.UploadAvatar(context.Background(), "user-1", []byte("x"), "text/plain"); !errors.Is(err, ErrAvatarUnsupportedMIME) {
		t.Fatalf("UploadAvatar() bad type = %v, want ErrAvatarUnsupportedMIME", err)
	}
}

func TestSanitizeKeyBlocksTraversal(t *testing.T) {
	if _, err := sanitizeKey("../escape"); err == nil {
		t.Fatalf("sanitizeKey() accepted traversal key")
	}
	key, err := sanitizeKey("/user-1//pic.png")
	if err != nil {
		t.Fatalf("sanitizeKey() error: %v", err)
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		t.Fatalf("sanitizeKey() = %q", key)
	}
}
