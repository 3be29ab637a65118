package instanceutils

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/miekg/dns"
)

const (
	// DevNetwork is the holo-network value that selects development mode
	DevNetwork = "devNet"

	// ZtAccessDenied is the zt-status value that enables overlay registration
	ZtAccessDenied = "ACCESS_DENIED"

	DefaultHTTPTimeout = 30 * time.Second
)

// Settings holds every recognized option, resolved once at startup.
type Settings struct {
	HposConfigPath       string
	DeviceBundlePassword string

	AuthServerURL     string
	MemProofServerURL string

	MemProofPath        string
	ZtNotificationsPath string
	PubkeyPath          string

	// ValidationConfigGlob selects the bundle used for the key consistency
	// check. HposConfigPath is used when nothing matches.
	ValidationConfigGlob string

	HoloNetwork          string
	ZtStatus             string
	ZerotierIdentityPath string

	HoloportDomain    string
	HoloportDomainDev string

	HTTPTimeout time.Duration
	Retry       RetryConfig
}

// IsDevNetwork reports whether the host runs on the development network.
func (s *Settings) IsDevNetwork() bool {
	return s.HoloNetwork == DevNetwork
}

// OverlayEnabled reports whether ZeroTier registration was requested.
func (s *Settings) OverlayEnabled() bool {
	return s.ZtStatus == ZtAccessDenied
}

// HoloportSuffix is the hostname suffix of the public holoport URL.
func (s *Settings) HoloportSuffix() string {
	if s.IsDevNetwork() {
		return s.HoloportDomainDev
	}
	return s.HoloportDomain
}

// Validate checks the options that have no usable default: the config
// path, the authority URLs, the holoport domains, the HTTP timeout and the
// retry schedule.
func (s *Settings) Validate() error {
	if s.HposConfigPath == "" {
		return errors.New("hpos config path is required")
	}
	for name, raw := range map[string]string{
		"auth-server-url":      s.AuthServerURL,
		"mem-proof-server-url": s.MemProofServerURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: expected http(s)://host", name, raw)
		}
	}
	for _, domain := range []string{s.HoloportDomain, s.HoloportDomainDev} {
		if _, ok := dns.IsDomainName(domain); !ok || domain == "" {
			return fmt.Errorf("invalid holoport domain %q", domain)
		}
	}
	if s.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	return s.Retry.Validate()
}
