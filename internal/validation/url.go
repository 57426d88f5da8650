package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks URLs the app fetches from or hands to a viewer: the
// search API base URL and the image URLs in search results.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// RequireScheme rejects input without an explicit http or https scheme
	// instead of assuming https.
	RequireScheme bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewURLValidator creates a new validator with secure defaults
func NewURLValidator() *URLValidator {
	return &URLValidator{
		MaxLength: 2048,
	}
}

// NewPermissiveURLValidator allows localhost and private addresses, for a
// self-hosted API mirror or tests against httptest servers.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// NewImageURLValidator is strict about scheme since image URLs always come
// from API responses and are never typed by the user.
func NewImageURLValidator() *URLValidator {
	return &URLValidator{
		RequireScheme: true,
		MaxLength:     2048,
	}
}

// ValidateAndNormalize validates a URL and returns the normalized version
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", errors.New("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'` ") {
		return "", errors.New("URL contains invalid characters")
	}

	lower := strings.ToLower(input)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if v.RequireScheme || strings.Contains(lower, "://") {
			return "", errors.New("URL must use http or https protocol")
		}
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.New("URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return "", errors.New("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", errors.New("URL must not carry credentials")
	}

	if err := v.validateHostSecurity(parsedURL.Host); err != nil {
		return "", err
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", errors.New("directory traversal patterns not allowed in URL path")
	}
	if strings.Contains(strings.ToLower(parsedURL.RawQuery), "javascript:") {
		return "", errors.New("suspicious query parameters detected")
	}

	return parsedURL.String(), nil
}

func (v *URLValidator) validateHostSecurity(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return errors.New("localhost URLs are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.New("private IP addresses are not permitted")
		}
	}

	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return errors.New("unroutable host")
	}

	return nil
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"127.0.0.0/8",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, block, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, block)
	}
	return out
}

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
