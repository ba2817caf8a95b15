package sandbox

import (
	"net"
	"net/url"
	"strings"
)

// NetworkPolicy validates outbound URLs before the sandbox performs a request.
// It rejects everything that could reach internal infrastructure from within
// user-authored code: non-HTTP(S) schemes, localhost names, loopback,
// RFC1918 private ranges, link-local (including the cloud metadata address),
// CGNAT and other non-public ranges.
type NetworkPolicy struct {
	// AllowPrivate disables the address checks (scheme checks remain). Only
	// ever set by tests that talk to a local httptest server.
	AllowPrivate bool
}

// cgnatNet is 100.64.0.0/10, which net.IP.IsPrivate does not cover.
var cgnatNet = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// ValidateURL returns a NetworkPolicyError when the URL must not be fetched.
func (p *NetworkPolicy) ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return &NetworkPolicyError{URL: raw, Reason: "unparseable URL"}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &NetworkPolicyError{URL: raw, Reason: "scheme must be http or https"}
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return &NetworkPolicyError{URL: raw, Reason: "missing host"}
	}

	if p.AllowPrivate {
		return nil
	}

	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return &NetworkPolicyError{URL: raw, Reason: "localhost is not reachable"}
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Not an IP literal. Public hostnames are allowed; resolution-time
		// checks are the HTTP client's dial policy's concern.
		return nil
	}

	switch {
	case ip.IsLoopback():
		return &NetworkPolicyError{URL: raw, Reason: "loopback address is not reachable"}
	case ip.IsPrivate():
		return &NetworkPolicyError{URL: raw, Reason: "private address is not reachable"}
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return &NetworkPolicyError{URL: raw, Reason: "link-local address is not reachable"}
	case ip.IsUnspecified():
		return &NetworkPolicyError{URL: raw, Reason: "unspecified address is not reachable"}
	case ip.IsMulticast():
		return &NetworkPolicyError{URL: raw, Reason: "multicast address is not reachable"}
	case cgnatNet.Contains(ip):
		return &NetworkPolicyError{URL: raw, Reason: "shared address space is not reachable"}
	default:
		return nil
	}
}
