package config

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	loginRateVar  = "LOGIN_RATE_PER_SECOND"
	loginBurstVar = "LOGIN_RATE_BURST"
	// TRUSTED_PROXIES lists the IPs or CIDRs whose X-Forwarded-For header is believed.
	trustedProxiesVar = "TRUSTED_PROXIES"
)

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetLoginRatePerSecond() float64
	GetLoginRateBurst() int
	GetTrustedProxies() []netip.Prefix
}

type Security struct {
	ratePerSecond  float64
	burst          int
	trustedProxies []netip.Prefix
}

var _ SecurityConfig = Security{}

func loadSecurity() (Security, error) {
	rate, err := strconv.ParseFloat(GetEnv(loginRateVar, "1"), 64)
	if err != nil {
		return Security{}, errors.Wrapf(err, "%s is not a number", loginRateVar)
	}
	burst, err := strconv.Atoi(GetEnv(loginBurstVar, "5"))
	if err != nil {
		return Security{}, errors.Wrapf(err, "%s is not an integer", loginBurstVar)
	}
	proxies, err := parseTrustedProxies(GetEnv(trustedProxiesVar, ""))
	if err != nil {
		return Security{}, err
	}
	return Security{ratePerSecond: rate, burst: burst, trustedProxies: proxies}, nil
}

func parseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, errors.Wrapf(err, "%s entry %q", trustedProxiesVar, entry)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "%s entry %q", trustedProxiesVar, entry)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

// GetEnableRateLimiting reports whether /login and /refresh are throttled per client IP.
func (s Security) GetEnableRateLimiting() bool {
	return s.ratePerSecond > 0 && s.burst > 0
}

func (s Security) GetLoginRatePerSecond() float64 {
	return s.ratePerSecond
}

func (s Security) GetLoginRateBurst() int {
	return s.burst
}

// GetTrustedProxies is empty unless TRUSTED_PROXIES is set, in which case forwarded
// client addresses are only read from requests arriving from these peers.
func (s Security) GetTrustedProxies() []netip.Prefix {
	return s.trustedProxies
}
