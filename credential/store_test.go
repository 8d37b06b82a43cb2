package credential

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	value   string
	err     error
	gotSQL  string
	gotArgs []any
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.gotSQL = sql
	f.gotArgs = args
	return &fakeRow{value: f.value, err: f.err}
}

type fakeRow struct {
	value string
	err   error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*string); ok {
		*p = r.value
	}
	return nil
}

func TestPostgresStore(t *testing.T) {
	t.Run("looks up by account and service and decrypts", func(t *testing.T) {
		db := &fakeQuerier{value: "encrypted:pc-key"}
		store := NewPostgresStore(db, func(ciphertext string) (string, error) {
			return strings.TrimPrefix(ciphertext, "encrypted:"), nil
		})

		key, err := store.APIKey(context.Background(), 42, ServicePinecone)
		require.NoError(t, err)
		assert.Equal(t, "pc-key", key)
		assert.Contains(t, db.gotSQL, "account_id = $1")
		assert.Equal(t, []any{int64(42), ServicePinecone}, db.gotArgs)
	})

	t.Run("no row maps to ErrNotFound", func(t *testing.T) {
		db := &fakeQuerier{err: pgx.ErrNoRows}
		store := NewPostgresStore(db, nil)

		_, err := store.APIKey(context.Background(), 7, ServicePinecone)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("decryption failure is an error", func(t *testing.T) {
		db := &fakeQuerier{value: "garbage"}
		store := NewPostgresStore(db, func(string) (string, error) {
			return "", errors.New("bad ciphertext")
		})

		_, err := store.APIKey(context.Background(), 42, ServicePinecone)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decryption")
	})

	t.Run("nil decrypt returns the stored value", func(t *testing.T) {
		db := &fakeQuerier{value: "plain-key"}
		store := NewPostgresStore(db, nil)

		key, err := store.APIKey(context.Background(), 42, ServicePinecone)
		require.NoError(t, err)
		assert.Equal(t, "plain-key", key)
	})
}

func TestStaticStore(t *testing.T) {
	store := NewStaticStore()
	store.Set(42, ServicePinecone, "pc-key")

	t.Run("returns registered key", func(t *testing.T) {
		key, err := store.APIKey(context.Background(), 42, ServicePinecone)
		require.NoError(t, err)
		assert.Equal(t, "pc-key", key)
	})

	t.Run("unknown account is ErrNotFound", func(t *testing.T) {
		_, err := store.APIKey(context.Background(), 7, ServicePinecone)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown service is ErrNotFound", func(t *testing.T) {
		_, err := store.APIKey(context.Background(), 42, "OTHER")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
