/**
 * @description
 * Conversion between hosted PayID URLs (https://example.com/alice) and
 * PayIDs (alice$example.com).
 */
package payid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalidPayID = errors.New("invalid payid")

var userPattern = regexp.MustCompile("^[a-z0-9!#@%&*+/=?^_`{|}~-]+(?:\\.[a-z0-9!#@%&*+/=?^_`{|}~-]+)*$")

// FromURL normalizes the URL a PayID is hosted at into its lower-case PayID.
func FromURL(hostedURL string) (string, error) {
	raw := strings.TrimSpace(hostedURL)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidPayID)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayID, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: PayID URLs must be HTTP/HTTPS", ErrInvalidPayID)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidPayID)
	}

	user := strings.ToLower(strings.TrimPrefix(u.Path, "/"))
	if user == "" {
		return "", fmt.Errorf("%w: missing user", ErrInvalidPayID)
	}
	if strings.Contains(user, "/") {
		return "", fmt.Errorf("%w: too many path segments", ErrInvalidPayID)
	}
	if !userPattern.MatchString(user) {
		return "", fmt.Errorf("%w: user %q contains invalid characters", ErrInvalidPayID, user)
	}

	return user + "$" + strings.ToLower(u.Host), nil
}

// ToURL is the inverse of FromURL.
func ToURL(payID string) (string, error) {
	idx := strings.LastIndex(payID, "$")
	if idx <= 0 || idx == len(payID)-1 {
		return "", fmt.Errorf("%w: %q is not of the form user$host", ErrInvalidPayID, payID)
	}
	return "https://" + strings.ToLower(payID[idx+1:]) + "/" + strings.ToLower(payID[:idx]), nil
}
