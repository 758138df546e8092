/**
 * @description
 * Parser for PayID content-negotiation tokens of the form
 * application/{network}(-{environment})?+json(;q=<0..1>)?
 */
package negotiation

import (
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strconv"
	"strings"
)

const (
	// AnyEnvironment is the wildcard environment of a token without an
	// environment segment. Concrete environments are never empty.
	AnyEnvironment = ""

	// AllAddressesNetwork asks for every address of a PayID.
	AllAddressesNetwork = "payid"

	genericJSON    = "application/json"
	defaultQuality = 1.0
)

var ErrInvalidMediaType = errors.New("invalid media type")

// InvalidMediaTypeError reports the offending token and why it was rejected.
type InvalidMediaTypeError struct {
	Token  string
	Reason string
}

func (e *InvalidMediaTypeError) Error() string {
	return fmt.Sprintf("invalid media type %q: %s", e.Token, e.Reason)
}

func (e *InvalidMediaTypeError) Unwrap() error {
	return ErrInvalidMediaType
}

var payIDMediaType = regexp.MustCompile(`^application/(\w+)(?:-(\w+))?\+json$`)

// AcceptedMediaType is one parsed client preference.
type AcceptedMediaType struct {
	PaymentNetwork string  `json:"payment_network"`
	Environment    string  `json:"environment,omitempty"`
	Quality        float64 `json:"quality"`
	// MediaType is the canonical media type, used as the response Content-Type.
	MediaType string `json:"media_type"`
}

// AnyEnvironment reports whether the preference accepts every environment of its network.
func (m AcceptedMediaType) AnyEnvironment() bool {
	return m.Environment == AnyEnvironment
}

// AllAddresses reports whether the preference asks for the full address set.
func (m AcceptedMediaType) AllAddresses() bool {
	return m.PaymentNetwork == AllAddressesNetwork
}

func (m AcceptedMediaType) String() string {
	if m.Quality == defaultQuality {
		return m.MediaType
	}
	return m.MediaType + ";q=" + strconv.FormatFloat(m.Quality, 'f', -1, 64)
}

// Format renders a token that Parse maps back onto the same preference.
func Format(network, environment string, quality float64) string {
	return AcceptedMediaType{
		PaymentNetwork: network,
		Environment:    environment,
		Quality:        quality,
		MediaType:      canonicalMediaType(network, environment),
	}.String()
}

func canonicalMediaType(network, environment string) string {
	if environment == AnyEnvironment {
		return "application/" + network + "+json"
	}
	return "application/" + network + "-" + environment + "+json"
}

// Parse turns a single Accept token into an AcceptedMediaType.
// A bare application/json is treated as application/payid+json.
func Parse(token string) (AcceptedMediaType, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return AcceptedMediaType{}, &InvalidMediaTypeError{Token: token, Reason: "empty media type"}
	}

	// mime lower-cases the type and parameter names and tolerates whitespace around ';' and '='.
	mediaType, params, err := mime.ParseMediaType(trimmed)
	if err != nil {
		return AcceptedMediaType{}, &InvalidMediaTypeError{Token: token, Reason: err.Error()}
	}

	quality, err := parseQuality(params)
	if err != nil {
		return AcceptedMediaType{}, &InvalidMediaTypeError{Token: token, Reason: err.Error()}
	}

	if mediaType == genericJSON {
		return AcceptedMediaType{
			PaymentNetwork: AllAddressesNetwork,
			Environment:    AnyEnvironment,
			Quality:        quality,
			MediaType:      genericJSON,
		}, nil
	}

	groups := payIDMediaType.FindStringSubmatch(mediaType)
	if groups == nil {
		return AcceptedMediaType{}, &InvalidMediaTypeError{
			Token:  token,
			Reason: "must be of the form application/{payment_network}(-{environment})+json",
		}
	}

	network, environment := groups[1], groups[2]
	return AcceptedMediaType{
		PaymentNetwork: network,
		Environment:    environment,
		Quality:        quality,
		MediaType:      canonicalMediaType(network, environment),
	}, nil
}

func parseQuality(params map[string]string) (float64, error) {
	quality := defaultQuality
	for name, value := range params {
		if name != "q" {
			return 0, fmt.Errorf("unsupported parameter %q", name)
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("quality %q is not a number", value)
		}
		// The negated form also rejects NaN.
		if !(q >= 0 && q <= 1) {
			return 0, fmt.Errorf("quality %q is outside [0,1]", value)
		}
		quality = q
	}
	return quality, nil
}
