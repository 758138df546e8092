package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wangpengwen/payid/internal/negotiation"
)

// Failure classes returned by Service.Resolve. Client input errors wrap the
// underlying cause, so errors.As still reaches e.g. *negotiation.InvalidMediaTypeError.
var (
	ErrInvalidIdentifier   = errors.New("invalid identifier")
	ErrMissingAcceptHeader = errors.New("missing accept header")
	ErrInvalidAcceptHeader = errors.New("invalid accept header")
	ErrNotFound            = errors.New("payment information not found")

	ErrLookupFailed       = errors.New("address lookup failed")
	ErrUnknownDetailsKind = errors.New("unknown address details kind")
	ErrMalformedDetails   = errors.New("malformed address details")
)

// NotFoundReason tells apart an unknown PayID from one without a matching address.
type NotFoundReason string

const (
	NoRecords        NotFoundReason = "no_records"
	NoMatchingRecord NotFoundReason = "no_matching_record"
)

// NotFoundError is returned when no stored address satisfies the request.
type NotFoundError struct {
	PayID  string
	Reason NotFoundReason
	// AcceptType is set only when the request carried exactly one accepted type.
	AcceptType *negotiation.AcceptedMediaType
}

func newNotFoundError(payID string, prefs []negotiation.AcceptedMediaType, noRecords bool) *NotFoundError {
	err := &NotFoundError{PayID: payID, Reason: NoMatchingRecord}
	if noRecords {
		err.Reason = NoRecords
	}
	if len(prefs) == 1 {
		pref := prefs[0]
		err.AcceptType = &pref
	}
	return err
}

func (e *NotFoundError) Error() string {
	if e.AcceptType == nil || e.AcceptType.AllAddresses() {
		return fmt.Sprintf("Payment information for %s could not be found.", e.PayID)
	}
	network := strings.ToUpper(e.AcceptType.PaymentNetwork)
	if e.AcceptType.AnyEnvironment() {
		return fmt.Sprintf("Payment information for %s in %s could not be found.", e.PayID, network)
	}
	return fmt.Sprintf("Payment information for %s in %s on %s could not be found.",
		e.PayID, network, strings.ToUpper(e.AcceptType.Environment))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
