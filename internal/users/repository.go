package users

import (
	"context"
	"fmt"

	"opensesame/internal/db"

	sq "github.com/Masterminds/squirrel"
)

// Repository persists per-user interest tags.
type Repository struct {
	db *db.DB
}

func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceInterestTags swaps the user's tags for tags, keeping their order.
// An empty slice clears them.
func (r *Repository) ReplaceInterestTags(ctx context.Context, userID string, tags []string) (err error) { //nolint:nonamedreturns
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = db.CommitOrRollback(tx, err, "replace interest tags")
	}()

	query, args, err := db.PSQL.Delete("interest_tags").
		Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete interest tags error: %w", err)
	}

	if len(tags) == 0 {
		return nil
	}

	insert := db.PSQL.Insert("interest_tags").Columns("user_id", "position", "tag")
	for i, tag := range tags {
		insert = insert.Values(userID, i, tag)
	}

	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("to sql error: %w", err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert interest tags error: %w", err)
	}

	return nil
}

// InterestTags returns the user's tags in the order they were submitted.
func (r *Repository) InterestTags(ctx context.Context, userID string) ([]string, error) {
	query, args, err := db.PSQL.Select("tag").
		From("interest_tags").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interest tags error: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tags, nil
}
