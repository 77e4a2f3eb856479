// Package filex reads local files for upload.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// MaxLogoSize is the largest logo ReadLogo accepts.
const MaxLogoSize = 1 << 20

var ErrTooLarge = errors.New("file too large")

// ReadLogo reads an image file of at most limit bytes and sniffs its content
// type. Files that do not look like images are rejected.
func ReadLogo(path string, limit int64) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, limit)
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return nil, "", fmt.Errorf("%s is not an image (%s)", path, ct)
	}
	return data, ct, nil
}
