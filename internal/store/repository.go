/**
 * @description
 * Data access layer for PayID addresses.
 */
package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wangpengwen/payid/internal/domain"
)

// Repository handles database operations for PayID addresses.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Addresses without an explicit details type are ACH when their network is ACH
// and crypto otherwise.
const findAddressesByPayIDQuery = `
	SELECT a.id::TEXT,
	       a.payment_network,
	       COALESCE(a.environment, ''),
	       COALESCE(a.details_type,
	                CASE WHEN UPPER(a.payment_network) = 'ACH' THEN 'AchAddressDetails'
	                     ELSE 'CryptoAddressDetails' END),
	       a.details,
	       a.created_at
	FROM address a
	JOIN account acc ON acc.id = a.account_id
	WHERE acc.pay_id = $1
	ORDER BY a.created_at ASC, a.id ASC
`

// FindAddressesByPayID returns every address of payID in insertion order.
// Network and environment are lower-cased. Unknown PayIDs yield no rows.
func (r *Repository) FindAddressesByPayID(ctx context.Context, payID string) ([]domain.AddressRecord, error) {
	rows, err := r.db.Query(ctx, findAddressesByPayIDQuery, strings.ToLower(payID))
	if err != nil {
		return nil, err
	}

	records, err := pgx.CollectRows(rows, scanAddressRecord)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.AddressRecord{}
	}
	return records, nil
}

func scanAddressRecord(row pgx.CollectableRow) (domain.AddressRecord, error) {
	var (
		record      domain.AddressRecord
		detailsType string
	)
	if err := row.Scan(
		&record.ID,
		&record.PaymentNetwork,
		&record.Environment,
		&detailsType,
		&record.Details,
		&record.CreatedAt,
	); err != nil {
		return domain.AddressRecord{}, err
	}
	record.PaymentNetwork = strings.ToLower(record.PaymentNetwork)
	record.Environment = strings.ToLower(record.Environment)
	record.DetailsKind = domain.ParseDetailsKind(detailsType)
	return record, nil
}

// CountAddresses reports stored addresses per network and environment.
func (r *Repository) CountAddresses(ctx context.Context) ([]domain.AddressCount, error) {
	query := `
		SELECT LOWER(payment_network), LOWER(COALESCE(environment, '')), COUNT(*)
		FROM address
		GROUP BY 1, 2
		ORDER BY 1, 2
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.AddressCount
	for rows.Next() {
		var c domain.AddressCount
		if err := rows.Scan(&c.PaymentNetwork, &c.Environment, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
