package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/journeykeeper/internal/common"
	"github.com/dmitrijs2005/journeykeeper/internal/dbx"
	"github.com/jmoiron/sqlx"
)

const (
	keyPrefix    = "session."
	keyToken     = keyPrefix + "token"
	keyJourneyID = keyPrefix + "journey_id"
	keyUserID    = keyPrefix + "user_id"
	keyEmail     = keyPrefix + "email"
	keyExpiresAt = keyPrefix + "expires_at"
)

var sessionKeys = []string{keyToken, keyJourneyID, keyUserID, keyEmail, keyExpiresAt}

type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

var _ Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Save(ctx context.Context, s models.Session) error {
	if s.Token == "" {
		return fmt.Errorf("%w: empty token", common.ErrInvalidArgument)
	}
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		values := map[string]string{
			keyToken:     s.Token,
			keyJourneyID: s.JourneyID,
			keyUserID:    s.UserID,
			keyEmail:     s.Email,
		}
		kv := metadata.NewSQLiteRepository(tx)
		for k, v := range values {
			if err := kv.Set(ctx, k, v); err != nil {
				return err
			}
		}
		if s.ExpiresAt == nil {
			return kv.Delete(ctx, keyExpiresAt)
		}
		return kv.Set(ctx, keyExpiresAt, strconv.FormatInt(dbx.Millis(*s.ExpiresAt), 10))
	})
}

func (r *SQLiteRepository) Load(ctx context.Context) (*models.Session, error) {
	values, err := metadata.NewSQLiteRepository(r.db).List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	if values[keyToken] == "" {
		return nil, common.ErrNotFound
	}

	s := &models.Session{
		Token:     values[keyToken],
		JourneyID: values[keyJourneyID],
		UserID:    values[keyUserID],
		Email:     values[keyEmail],
	}
	if raw, ok := values[keyExpiresAt]; ok {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt session expiry %q: %w", raw, err)
		}
		exp := dbx.FromMillis(ms)
		s.ExpiresAt = &exp
	}
	return s, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		kv := metadata.NewSQLiteRepository(tx)
		for _, k := range sessionKeys {
			if err := kv.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}
