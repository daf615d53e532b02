// Package fileid derives stable identifiers for verification cases from their files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

const prefix = "case:"

// CaseID returns a stable ID for the case at position index of the case file at path.
// The path is cleaned first, so equivalent spellings of one path share IDs.
func CaseID(path string, index int) string {
	h := sha256.New()
	h.Write([]byte(filepath.Clean(path)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(index)))
	return prefix + hex.EncodeToString(h.Sum(nil))[:16]
}
