package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Well-known service identifiers as stored in the credentials table.
const (
	ServicePinecone = "PINECONE_API_KEY"
)

// ErrNotFound indicates the account has no credential for the service.
var ErrNotFound = errors.New("credential not found")

// Store resolves an account's API key for a named third-party service.
type Store interface {
	APIKey(ctx context.Context, accountID int64, service string) (string, error)
}

// Querier is the subset of pgx pool/conn behavior the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DecryptFunc decrypts a stored credential value. Keys are encrypted at
// rest; the decryption secret stays with the caller.
type DecryptFunc func(ciphertext string) (string, error)

// PostgresStore reads credentials from the service_credentials table.
type PostgresStore struct {
	db      Querier
	decrypt DecryptFunc
}

// NewPostgresStore creates a store backed by db. decrypt may be nil when
// values are stored in plaintext.
func NewPostgresStore(db Querier, decrypt DecryptFunc) *PostgresStore {
	return &PostgresStore{db: db, decrypt: decrypt}
}

// APIKey implements Store.
func (s *PostgresStore) APIKey(ctx context.Context, accountID int64, service string) (string, error) {
	const query = `SELECT value FROM service_credentials WHERE account_id = $1 AND service = $2`

	var value string
	err := s.db.QueryRow(ctx, query, accountID, service).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: account %d service %s", ErrNotFound, accountID, service)
	}
	if err != nil {
		return "", fmt.Errorf("credential lookup failed: %w", err)
	}

	if s.decrypt != nil {
		plain, err := s.decrypt(value)
		if err != nil {
			return "", fmt.Errorf("credential decryption failed: %w", err)
		}
		return plain, nil
	}
	return value, nil
}

// StaticStore serves credentials from an in-memory map keyed by
// accountID/service. Intended for tests and examples.
type StaticStore struct {
	keys map[int64]map[string]string
}

// NewStaticStore creates an empty static store.
func NewStaticStore() *StaticStore {
	return &StaticStore{keys: make(map[int64]map[string]string)}
}

// Set registers a credential.
func (s *StaticStore) Set(accountID int64, service, key string) {
	if s.keys[accountID] == nil {
		s.keys[accountID] = make(map[string]string)
	}
	s.keys[accountID][service] = key
}

// APIKey implements Store.
func (s *StaticStore) APIKey(_ context.Context, accountID int64, service string) (string, error) {
	if key, ok := s.keys[accountID][service]; ok {
		return key, nil
	}
	return "", fmt.Errorf("%w: account %d service %s", ErrNotFound, accountID, service)
}
