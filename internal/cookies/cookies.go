// Package cookies reads the session credential exported from a browser.
package cookies

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissing is returned when the cookies file does not exist.
var ErrMissing = errors.New("cookies file not found")

// Load reads a "key=value; key=value" cookie string from path.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (export your browser cookies to this file)", ErrMissing, path)
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse splits a cookie header style string into name/value pairs. Pairs
// without '=' are ignored; values may themselves contain '='.
func Parse(s string) map[string]string {
	cookies := make(map[string]string)
	for _, pair := range strings.Split(strings.TrimSpace(s), ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		cookies[key] = value
	}
	return cookies
}
