package sds

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 64 << 20

// maxErrorBody caps the body text carried by an APIError.
const maxErrorBody = 4 << 10

// readBody drains r, decompressing it first when contentEncoding is gzip.
func readBody(r io.Reader, contentEncoding string) ([]byte, error) {
	if isGzip(contentEncoding) {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func isGzip(contentEncoding string) bool {
	for _, enc := range strings.Split(contentEncoding, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

func errorBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
