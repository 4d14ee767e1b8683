package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// One validation policy for every avatar upload path: JPEG/PNG/WebP up to
// 5MB.
const MaxAvatarBytes = 5 << 20

var (
	ErrAvatarTooLarge        = errors.New("avatar exceeds 5MB limit")
	ErrAvatarUnsupportedMIME = errors.New("avatar must be jpeg, png or webp")
)

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ValidateAvatar checks the upload against the unified policy.
func ValidateAvatar(contentType string, size int64) error {
	if size > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	if _, ok := avatarExtensions[strings.ToLower(contentType)]; !ok {
		return ErrAvatarUnsupportedMIME
	}
	return nil
}

func avatarExtension(contentType string) string {
	if ext, ok := avatarExtensions[strings.ToLower(contentType)]; ok {
		return ext
	}
	return ".bin"
}

// AvatarStore persists an avatar image and returns its public URL.
type AvatarStore interface {
	UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// FileAvatarStore keeps avatars on the local filesystem, for development and
// single-node deployments without object storage.
type FileAvatarStore struct {
	store   *FileStore
	baseURL string
	newName func() string
}

// NewFileAvatarStore builds a FileAvatarStore rooted at the given FileStore.
// baseURL is the public prefix the stored keys are served from.
func NewFileAvatarStore(store *FileStore, baseURL string, newName func() string) *FileAvatarStore {
	return &FileAvatarStore{store: store, baseURL: strings.TrimRight(baseURL, "/"), newName: newName}
}

// UploadAvatar validates and writes the avatar, returning its public URL.
func (s *FileAvatarStore) UploadAvatar(ctx context.Context, userID string, data []byte, contentType string) (string, error) {
	if err := ValidateAvatar(contentType, int64(len(data))); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", userID, s.newName(), avatarExtension(contentType))
	cleanKey, err := s.store.Write(ctx, key, data)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + cleanKey, nil
}

var _ AvatarStore = (*FileAvatarStore)(nil)
