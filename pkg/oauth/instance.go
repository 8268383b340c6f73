package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultInstanceDomain is appended to bare instance names such as "dev12345".
const DefaultInstanceDomain = "service-now.com"

// ErrInvalidInstance is returned when an instance URL cannot be normalized.
var ErrInvalidInstance = errors.New("invalid instance URL")

// NormalizeInstanceURL turns user input into a canonical instance base URL.
//
//	"dev12345"                          -> "https://dev12345.service-now.com"
//	"dev12345.service-now.com/"         -> "https://dev12345.service-now.com"
//	"http://localhost:8080//"           -> "http://localhost:8080"
//
// A value without a dot in its host is treated as a bare instance name and
// gets domain appended (DefaultInstanceDomain when domain is empty). Hosts
// that are "localhost" or carry a port are left alone.
func NormalizeInstanceURL(raw, domain string) (string, error) {
	if domain == "" {
		domain = DefaultInstanceDomain
	}
	domain = strings.TrimPrefix(domain, ".")

	value := strings.TrimSpace(raw)
	value = strings.TrimRight(value, "/")
	if value == "" {
		return "", fmt.Errorf("%w: instance is empty", ErrInvalidInstance)
	}

	if !strings.Contains(value, "://") {
		value = "https://" + value
	}

	u, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidInstance, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidInstance, raw)
	}
	if !strings.Contains(host, ".") && host != "localhost" && u.Port() == "" {
		u.Host = host + "." + domain
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}
