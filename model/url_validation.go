package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// URL validation errors
var (
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme - only HTTP and HTTPS are allowed")
	ErrPrivateIPBlocked  = errors.New("private IP addresses and localhost are blocked for security")
	ErrMissingHost       = errors.New("URL must have a valid host")
	ErrEmptyURL          = errors.New("URL cannot be empty")
	ErrForeignHost       = errors.New("URL does not belong to the feed's site")
)

// Resolver is the subset of net.Resolver used for the private address check.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ValidateFeedURL checks the configured feed URL for scheme, host and,
// unless allowPrivateIPs is set, that it does not point at a private or
// loopback address.
func ValidateFeedURL(ctx context.Context, rawURL string, allowPrivateIPs bool) error {
	return validateURL(ctx, net.DefaultResolver, rawURL, allowPrivateIPs)
}

func validateURL(ctx context.Context, resolver Resolver, rawURL string, allowPrivateIPs bool) error {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		return err
	}

	if allowPrivateIPs {
		return nil
	}

	return validateHost(ctx, resolver, u.Hostname())
}

// SameSite reports an error unless link is an http(s) URL on the same host as base.
// A leading "www." is ignored on either side.
func SameSite(base, link string) error {
	b, err := parseHTTPURL(base)
	if err != nil {
		return err
	}
	l, err := parseHTTPURL(link)
	if err != nil {
		return err
	}
	if trimWWW(b.Hostname()) != trimWWW(l.Hostname()) {
		return fmt.Errorf("%w: %s", ErrForeignHost, l.Hostname())
	}
	return nil
}

func parseHTTPURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	// Blocks file://, ftp://, data: and friends.
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, ErrUnsupportedScheme
	}

	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}

	return u, nil
}

// validateHost rejects localhost and hosts resolving to private ranges.
// Unresolvable hosts pass and fail later at request time.
func validateHost(ctx context.Context, resolver Resolver, hostname string) error {
	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return ErrPrivateIPBlocked
	}

	if addr, err := netip.ParseAddr(hostname); err == nil {
		if isPrivateAddr(addr) {
			return ErrPrivateIPBlocked
		}
		return nil
	}

	addrs, err := resolver.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return nil
	}

	for _, addr := range addrs {
		if isPrivateAddr(addr) {
			return ErrPrivateIPBlocked
		}
	}

	return nil
}

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified()
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
