/**
 * @description
 * Domain models for stored payment addresses and the PayID wire payload.
 */
package domain

import (
	"encoding/json"
	"time"
)

// DetailsKind discriminates the two address detail shapes.
type DetailsKind string

const (
	CryptoAddress DetailsKind = "crypto-address"
	AchAddress    DetailsKind = "ach-address"
)

// Wire names of the detail shapes, as stored and as rendered in responses.
const (
	CryptoAddressDetailsType = "CryptoAddressDetails"
	AchAddressDetailsType    = "AchAddressDetails"
)

// ParseDetailsKind maps a stored details type onto a DetailsKind.
// Unrecognized values are returned as-is so callers can reject them explicitly.
func ParseDetailsKind(raw string) DetailsKind {
	switch raw {
	case CryptoAddressDetailsType, string(CryptoAddress):
		return CryptoAddress
	case AchAddressDetailsType, string(AchAddress):
		return AchAddress
	default:
		return DetailsKind(raw)
	}
}

// AddressRecord is one stored payment destination for a PayID.
// PaymentNetwork and Environment are lower-case; Environment may be empty
// for networks without deployment tiers (ACH).
type AddressRecord struct {
	ID             string          `json:"id"`
	PaymentNetwork string          `json:"payment_network"`
	Environment    string          `json:"environment,omitempty"`
	DetailsKind    DetailsKind     `json:"details_kind"`
	Details        json.RawMessage `json:"details"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CryptoAddressDetails is the payload of a ledger address.
type CryptoAddressDetails struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

// AchAddressDetails is the payload of a bank account reachable over ACH.
type AchAddressDetails struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
}

// Address is one address as rendered to PayID clients.
type Address struct {
	PaymentNetwork     string      `json:"paymentNetwork"`
	Environment        string      `json:"environment,omitempty"`
	AddressDetailsType string      `json:"addressDetailsType"`
	AddressDetails     interface{} `json:"addressDetails"`
}

// PaymentInformation is the response body of a successful lookup.
type PaymentInformation struct {
	PayID     string    `json:"payId"`
	Addresses []Address `json:"addresses"`
	Memo      string    `json:"memo,omitempty"`
}

// AddressCount is the number of stored addresses per network and environment.
type AddressCount struct {
	PaymentNetwork string
	Environment    string
	Count          int64
}
