/**
 * @description
 * Resolution of a hosted PayID URL plus Accept preferences into the single
 * address (or address set) that best satisfies the client.
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wangpengwen/payid/internal/domain"
	"github.com/wangpengwen/payid/internal/negotiation"
	"github.com/wangpengwen/payid/internal/payid"
)

const publishTimeout = 2 * time.Second

// RecordStore returns every stored address of a PayID, in insertion order.
// An unknown PayID yields an empty slice, not an error.
type RecordStore interface {
	FindAddressesByPayID(ctx context.Context, payID string) ([]domain.AddressRecord, error)
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Resolution is the outcome of a successful lookup.
type Resolution struct {
	PayID      string
	AcceptType negotiation.AcceptedMediaType
	// ContentType is the media type the response must be served as.
	ContentType string
	Record      domain.AddressRecord
	Payment     domain.PaymentInformation
}

// Service resolves PayIDs.
type Service struct {
	store     RecordStore
	publisher EventPublisher
	metrics   *Metrics
	logger    *slog.Logger
	exchange  string
	normalize func(string) (string, error)
}

// NewService creates a resolver. publisher and metrics may be nil.
func NewService(store RecordStore, publisher EventPublisher, metrics *Metrics, logger *slog.Logger, exchange string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		exchange:  exchange,
		normalize: payid.FromURL,
	}
}

// Resolve normalizes hostedURL, ranks acceptTokens, fetches the PayID's
// addresses once and selects the best match.
func (s *Service) Resolve(ctx context.Context, hostedURL string, acceptTokens []string) (*Resolution, error) {
	started := time.Now()

	payID, err := s.normalize(hostedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}

	if len(acceptTokens) == 0 {
		return nil, ErrMissingAcceptHeader
	}

	prefs, err := negotiation.Rank(acceptTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAcceptHeader, err)
	}

	records, err := s.store.FindAddressesByPayID(ctx, payID)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrLookupFailed, payID, err)
	}

	match, found := negotiation.Select(records, prefs)
	if !found {
		notFound := newNotFoundError(payID, prefs, len(records) == 0)
		s.recordLookup(ctx, payID, prefs, nil, time.Since(started))
		return nil, notFound
	}

	payment, err := renderPaymentInformation(payID, match.Records)
	if err != nil {
		s.logger.Error("failed to render matched addresses", "pay_id", payID, "error", err)
		return nil, err
	}

	s.recordLookup(ctx, payID, prefs, &match.AcceptType, time.Since(started))

	return &Resolution{
		PayID:       payID,
		AcceptType:  match.AcceptType,
		ContentType: match.AcceptType.MediaType,
		Record:      match.Record,
		Payment:     payment,
	}, nil
}

func renderPaymentInformation(payID string, records []domain.AddressRecord) (domain.PaymentInformation, error) {
	addresses := make([]domain.Address, 0, len(records))
	for _, record := range records {
		address, err := renderAddress(record)
		if err != nil {
			return domain.PaymentInformation{}, err
		}
		addresses = append(addresses, address)
	}
	return domain.PaymentInformation{PayID: payID, Addresses: addresses}, nil
}

func renderAddress(record domain.AddressRecord) (domain.Address, error) {
	address := domain.Address{
		PaymentNetwork: strings.ToUpper(record.PaymentNetwork),
		Environment:    strings.ToUpper(record.Environment),
	}

	switch record.DetailsKind {
	case domain.CryptoAddress:
		var details domain.CryptoAddressDetails
		if err := json.Unmarshal(record.Details, &details); err != nil {
			return domain.Address{}, fmt.Errorf("%w: address %s: %w", ErrMalformedDetails, record.ID, err)
		}
		address.AddressDetailsType = domain.CryptoAddressDetailsType
		address.AddressDetails = details
	case domain.AchAddress:
		var details domain.AchAddressDetails
		if err := json.Unmarshal(record.Details, &details); err != nil {
			return domain.Address{}, fmt.Errorf("%w: address %s: %w", ErrMalformedDetails, record.ID, err)
		}
		address.AddressDetailsType = domain.AchAddressDetailsType
		address.AddressDetails = details
	default:
		return domain.Address{}, fmt.Errorf("%w %q on address %s", ErrUnknownDetailsKind, record.DetailsKind, record.ID)
	}
	return address, nil
}

// recordLookup feeds metrics and the event stream. Neither may change the outcome.
func (s *Service) recordLookup(ctx context.Context, payID string, prefs []negotiation.AcceptedMediaType, matched *negotiation.AcceptedMediaType, elapsed time.Duration) {
	found := matched != nil

	labelled := matched
	if labelled == nil && len(prefs) > 0 {
		labelled = &prefs[0]
	}
	network, environment := "", ""
	if labelled != nil {
		network, environment = labelled.PaymentNetwork, labelled.Environment
	}
	s.metrics.ObserveLookup(network, environment, found, elapsed)

	if s.publisher == nil {
		return
	}

	acceptTypes := make([]string, 0, len(prefs))
	for _, pref := range prefs {
		acceptTypes = append(acceptTypes, pref.String())
	}
	event := domain.LookupEvent{
		EventID:        uuid.NewString(),
		PayID:          payID,
		PaymentNetwork: network,
		Environment:    environment,
		AcceptTypes:    acceptTypes,
		Found:          found,
		OccurredAt:     time.Now().UTC(),
	}
	routingKey := domain.LookupNotFoundRoutingKey
	if found {
		routingKey = domain.LookupFoundRoutingKey
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, s.exchange, routingKey, event); err != nil {
		s.logger.Warn("failed to publish lookup event", "pay_id", payID, "routing_key", routingKey, "error", err)
	}
}
