package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxImageSize = 50 << 20 // 50 MB

// decodeImage accepts raw base64 or a data:[<mediatype>];base64,<data> URI.
func decodeImage(s string) ([]byte, error) {
	encoded := s
	if strings.HasPrefix(s, "data:") {
		rest := strings.TrimPrefix(s, "data:")
		commaIdx := strings.Index(rest, ",")
		if commaIdx < 0 {
			return nil, fmt.Errorf("invalid data URI: missing comma separator")
		}
		meta := rest[:commaIdx]
		if !strings.Contains(meta, ";base64") {
			return nil, fmt.Errorf("only base64 data URIs are supported")
		}
		if mime := strings.Split(meta, ";")[0]; mime != "" && mime != "image/jpeg" {
			return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
		}
		encoded = rest[commaIdx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image too large: %d bytes (max %d)", len(data), maxImageSize)
	}
	return data, nil
}

// validateJPEG verifies the content sniffs as JPEG.
func validateJPEG(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image is empty")
	}
	detected := http.DetectContentType(data)
	if strings.Split(detected, ";")[0] != "image/jpeg" {
		return fmt.Errorf("content is not a JPEG image (detected: %s)", detected)
	}
	return nil
}

// fetchHTTP downloads an image from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image too large: exceeds %d bytes", maxImageSize)
	}
	return data, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}
