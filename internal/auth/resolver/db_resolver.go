package resolver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"opensesame/internal/auth"
	"opensesame/internal/db"
	"opensesame/internal/logger"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// DBResolver resolves identities using the database.
type DBResolver struct {
	db *db.DB
}

func NewDBResolver(db *db.DB) *DBResolver {
	return &DBResolver{db: db}
}

// Resolve looks the identity up by (provider, provider_user_id). Unknown
// identities are linked to an existing user with the same verified email,
// or to a freshly created user. Everything runs in one transaction.
func (r *DBResolver) Resolve( //nolint:nonamedreturns
	ctx context.Context,
	identity *auth.Identity,
) (userID string, created bool, err error) {
	if identity == nil {
		return "", false, errors.New("identity is nil")
	}
	if identity.Provider == "" || identity.ProviderUserID == "" {
		return "", false, errors.New("identity missing provider or provider_user_id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = db.CommitOrRollback(tx, err, "resolve")
	}()

	// 1. known identity
	id, err := r.identityOwner(ctx, tx, identity)
	if err == nil {
		return id.String(), false, r.touchIdentity(ctx, tx, identity)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, err
	}

	// 2. existing user, new provider
	if identity.Email != "" && identity.EmailVerified {
		id, err = r.userByEmail(ctx, tx, identity.Email)
		if err == nil {
			logger.Info("linking identity to existing user", map[string]any{
				"provider": identity.Provider,
				"user_id":  id.String(),
			})
			return id.String(), false, r.insertIdentity(ctx, tx, id, identity)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", false, err
		}
	}

	// 3. new user
	id, err = r.insertUser(ctx, tx, identity)
	if err != nil {
		return "", false, err
	}
	if err = r.insertIdentity(ctx, tx, id, identity); err != nil {
		return "", false, err
	}

	return id.String(), true, nil
}

func (r *DBResolver) identityOwner(ctx context.Context, tx *sql.Tx, identity *auth.Identity) (uuid.UUID, error) {
	query, args, err := db.PSQL.Select("user_id").
		From("identities").
		Where(sq.Eq{
			"provider":         identity.Provider,
			"provider_user_id": identity.ProviderUserID,
		}).ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("to sql error: %w", err)
	}

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("identity lookup error: %w", err)
	}
	return id, nil
}

func (r *DBResolver) touchIdentity(ctx context.Context, tx *sql.Tx, identity *auth.Identity) error {
	query, args, err := db.PSQL.Update("identities").
		Set("login", identity.Login).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{
			"provider":         identity.Provider,
			"provider_user_id": identity.ProviderUserID,
		}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("identity update error: %w", err)
	}
	return nil
}

func (r *DBResolver) userByEmail(ctx context.Context, tx *sql.Tx, email string) (uuid.UUID, error) {
	query, args, err := db.PSQL.Select("id").
		From("users").
		Where(sq.Expr("LOWER(email) = LOWER(?)", email)).ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("to sql error: %w", err)
	}

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("user lookup error: %w", err)
	}
	return id, nil
}

func (r *DBResolver) insertUser(ctx context.Context, tx *sql.Tx, identity *auth.Identity) (uuid.UUID, error) {
	// unverified addresses are not stored so they cannot claim an account
	var email sql.NullString
	if identity.Email != "" && identity.EmailVerified {
		email = sql.NullString{String: identity.Email, Valid: true}
	}

	query, args, err := db.PSQL.Insert("users").
		Columns("email", "email_verified").
		Values(email, email.Valid).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("to sql error: %w", err)
	}

	var id uuid.UUID
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("user insert error: %w", err)
	}
	return id, nil
}

func (r *DBResolver) insertIdentity(ctx context.Context, tx *sql.Tx, userID uuid.UUID, identity *auth.Identity) error {
	query, args, err := db.PSQL.Insert("identities").
		Columns("user_id", "provider", "provider_user_id", "login").
		Values(userID, identity.Provider, identity.ProviderUserID, identity.Login).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("identity insert error: %w", err)
	}
	return nil
}
