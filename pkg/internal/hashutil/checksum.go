package hashutil

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/arthur-debert/devsync/pkg/types"
)

// Prefix marks the checksum algorithm in stored values.
const Prefix = "sha256:"

// Checksum calculates the SHA256 checksum of a byte slice
func Checksum(data []byte) string {
	return fmt.Sprintf("%s%x", Prefix, sha256.Sum256(data))
}

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(fs types.FS, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Checksum(data), nil
}

// Equal compares two checksums, accepting declared values without the
// algorithm prefix.
func Equal(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), Prefix))
}
