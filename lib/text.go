package lib

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gosimple/slug"
)

func Slugify(text string) string {
	return slug.Make(text)
}

// HashBytes returns the hex encoded sha256 digest of data
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
