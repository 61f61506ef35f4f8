package store

import (
	"fmt"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// ContentHash returns a stable fingerprint of version content, used to spot
// identical snapshots without comparing full text.
func ContentHash(content string) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return ""
	}
	if _, err := h.Write([]byte(content)); err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
