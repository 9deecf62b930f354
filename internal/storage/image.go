package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageBytes = 2 << 20

var (
	ErrImageTooLarge    = errors.New("image must be 2MB or smaller")
	ErrUnsupportedImage = errors.New("only png, jpg, jpeg and webp images are allowed")
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp"}

// ObjectStore persists an object under key and returns the reference clients
// use to fetch it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Images validates uploaded recipe images and stores them under a
// content-addressed key.
type Images struct {
	store ObjectStore
}

func NewImages(store ObjectStore) *Images {
	return &Images{store: store}
}

// Save checks size and sniffed type, then stores the image. The returned
// reference is what the recipe row keeps in its image column.
func (i *Images) Save(ctx context.Context, data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return "", ErrUnsupportedImage
	}

	sum := sha256.Sum256(data)
	key := "recipes/" + hex.EncodeToString(sum[:]) + mt.Extension()

	ref, err := i.store.Put(ctx, key, mt.String(), data)
	if err != nil {
		return "", fmt.Errorf("store image %s: %w", key, err)
	}
	return ref, nil
}
