package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for image materialization.
var (
	// ErrNoSource is returned when neither inline data nor a URL is supplied.
	// The message doubles as the client-facing response body.
	ErrNoSource = errors.New("No image data or file URL provided")
	// ErrBadImageData is returned when the inline payload cannot be decoded.
	ErrBadImageData = errors.New("extraction: invalid image data")
	// ErrFetchFailed is returned when the URL fetch fails.
	ErrFetchFailed = errors.New("extraction: image fetch failed")
	// ErrTooLarge is returned when the fetched image exceeds the size cap.
	ErrTooLarge = errors.New("extraction: image exceeds maximum size")
	// ErrPrivateAddress is returned when the URL resolves to a private or
	// internal network address.
	ErrPrivateAddress = errors.New("extraction: request to private network denied")
)

// MaterializerConfig holds settings for fetching and staging images.
type MaterializerConfig struct {
	// FetchTimeout is the HTTP timeout for URL sources. Default: 30 seconds.
	FetchTimeout time.Duration
	// MaxBytes caps the fetched image size. Default: 50MB.
	MaxBytes int64
	// AllowPrivateNetworks disables the private-IP checks. Test use only.
	AllowPrivateNetworks bool
	// TempDir is where transient image files are written. Empty means the
	// system temp directory.
	TempDir string
}

// Materializer stages an image source as a transient on-disk file so the OCR
// engine can read it. Every materialized file comes with a cleanup function
// that the caller must run on all exit paths.
type Materializer struct {
	client               *http.Client
	maxBytes             int64
	tempDir              string
	allowPrivateNetworks bool
}

// NewMaterializer creates a Materializer with the given configuration.
func NewMaterializer(cfg MaterializerConfig) *Materializer {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 50 * 1024 * 1024
	}

	m := &Materializer{
		maxBytes:             cfg.MaxBytes,
		tempDir:              cfg.TempDir,
		allowPrivateNetworks: cfg.AllowPrivateNetworks,
	}

	m.client = &http.Client{
		Timeout: cfg.FetchTimeout,
		// Redirect targets get the same private-IP check as the initial URL
		// so an open redirect cannot reach internal addresses.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("%w: too many redirects", ErrPrivateAddress)
			}
			if !m.allowPrivateNetworks {
				return validateURLNotPrivate(req.URL.String())
			}
			return nil
		},
	}

	return m
}

// FromBase64 decodes an inline base64 payload to a transient file. Both
// standard and raw (unpadded) encodings are accepted.
func (m *Materializer) FromBase64(data string) (string, func(), error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(data)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBadImageData, err)
	}
	return m.writeTemp(decoded)
}

// FromURL fetches the image at rawURL to a transient file, enforcing the
// private-network guard and the size cap.
func (m *Materializer) FromURL(ctx context.Context, rawURL string) (string, func(), error) {
	if !m.allowPrivateNetworks {
		if err := validateURLNotPrivate(rawURL); err != nil {
			return "", nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid URL: %w", ErrFetchFailed, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	// One extra byte past the cap detects oversized responses.
	content, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if int64(len(content)) > m.maxBytes {
		return "", nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, m.maxBytes)
	}

	return m.writeTemp(content)
}

func (m *Materializer) writeTemp(content []byte) (string, func(), error) {
	dir := m.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "ocr-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", nil, fmt.Errorf("write temp image: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}

// isPrivateIP reports whether ip falls in a private, loopback, or otherwise
// non-routable range, for both IPv4 and IPv6.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	privateRanges := []struct{ start, end net.IP }{
		{net.ParseIP("10.0.0.0"), net.ParseIP("10.255.255.255")},
		{net.ParseIP("172.16.0.0"), net.ParseIP("172.31.255.255")},
		{net.ParseIP("192.168.0.0"), net.ParseIP("192.168.255.255")},
		{net.ParseIP("169.254.0.0"), net.ParseIP("169.254.255.255")},
		{net.ParseIP("fc00::"), net.ParseIP("fdff:ffff:ffff:ffff:ffff:ffff:ffff:ffff")},
		{net.ParseIP("fe80::"), net.ParseIP("febf:ffff:ffff:ffff:ffff:ffff:ffff:ffff")},
	}
	for _, r := range privateRanges {
		if bytesInRange(ip.To16(), r.start.To16(), r.end.To16()) {
			return true
		}
	}
	return false
}

func bytesInRange(ip, lo, hi []byte) bool {
	for i := range ip {
		if ip[i] < lo[i] {
			return false
		}
		if ip[i] > hi[i] {
			return false
		}
	}
	return true
}

// validateURLNotPrivate resolves the hostname and rejects private IPs and
// non-HTTP schemes.
func validateURLNotPrivate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrivateAddress, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q is not allowed", ErrPrivateAddress, parsed.Scheme)
	}

	host := parsed.Hostname()
	ips, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %w", ErrFetchFailed, host, err)
	}
	for _, ipStr := range ips {
		ip := net.ParseIP(ipStr)
		if ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("%w: %s resolves to private address %s", ErrPrivateAddress, host, ipStr)
		}
	}
	return nil
}
