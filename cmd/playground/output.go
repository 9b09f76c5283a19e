package main

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// decodeDataURI splits a data: URI into its media type and payload.
func decodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}
	if !isBase64 {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("data URI payload: %w", err)
		}
		return mime, []byte(s), nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI payload: %w", err)
	}
	return mime, data, nil
}

// writeDataURI decodes uri and writes its payload to path.
func writeDataURI(path, uri string) (int, error) {
	_, data, err := decodeDataURI(uri)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return len(data), nil
}

// describeDataURI summarizes a data URI as "image/png, 1.2 KB".
func describeDataURI(uri string) string {
	mime, data, err := decodeDataURI(uri)
	if err != nil {
		return fmt.Sprintf("%d chars", len(uri))
	}
	return mime + ", " + formatBytes(len(data))
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
