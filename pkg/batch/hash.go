package batch

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// HashBytes returns the hex xxh3 digest of content.
func HashBytes(content []byte) string {
	return formatHash(xxh3.Hash(content))
}

// FileHash returns the hex xxh3 digest of the file at path. It equals
// HashBytes of the file content.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return formatHash(h.Sum64()), nil
}

func formatHash(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
