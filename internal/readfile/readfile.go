package readfile

import (
	"errors"
	"fmt"
	"os"
)

// MaxSourceBytes bounds the files ReadSource accepts.
const MaxSourceBytes = 8 << 20

var ErrTooLarge = errors.New("file too large")

// ReadSource returns the file verbatim so that byte offsets computed on the
// result are offsets into the file.
func ReadSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: is a directory", path)
	}
	if info.Size() > MaxSourceBytes {
		return "", fmt.Errorf("%s: %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
