package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"opensesame/internal/db"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("project not found")

var columns = []string{
	"repository_id",
	"mentor_ids",
	"interested_user_ids",
	"num_mentors",
	"num_interested_users",
	"num_contributors",
	"synced_with_github_at",
}

// Repository stores projects in Postgres. Member lists are text[] columns.
type Repository struct {
	db *db.DB
}

func NewRepository(db *db.DB) *Repository {
	return &Repository{db: db}
}

// Get loads one project. ErrNotFound means no such row.
func (r *Repository) Get(ctx context.Context, repositoryID string) (*Project, error) {
	query, args, err := db.PSQL.Select(columns...).
		From("projects").
		Where(sq.Eq{"repository_id": repositoryID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project error: %w", err)
	}
	return p, nil
}

// List returns the projects matching every filter, by repository id.
func (r *Repository) List(ctx context.Context, filters []Filter) ([]*Project, error) {
	if len(filters) == 0 {
		return r.list(ctx, nil)
	}

	where := sq.And{}
	for _, f := range filters {
		where = append(where, f.Sqlizer())
	}
	return r.list(ctx, where)
}

// ListStale returns the projects never synced or last synced at or before
// cutoff.
func (r *Repository) ListStale(ctx context.Context, cutoff time.Time) ([]*Project, error) {
	return r.list(ctx, sq.Or{
		sq.Eq{"synced_with_github_at": nil},
		sq.LtOrEq{"synced_with_github_at": cutoff},
	})
}

func (r *Repository) list(ctx context.Context, where sq.Sqlizer) ([]*Project, error) {
	builder := db.PSQL.Select(columns...).From("projects")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.OrderBy("repository_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql error: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects error: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project error: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects error: %w", err)
	}
	return projects, nil
}

// Save upserts every project in one transaction, recomputing their counts
// first.
func (r *Repository) Save(ctx context.Context, projects ...*Project) (err error) { //nolint:nonamedreturns
	if len(projects) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction error: %w", err)
	}

	defer func() {
		err = db.CommitOrRollback(tx, err, "save projects")
	}()

	for _, p := range projects {
		p.Normalize()

		var contributors sql.NullInt64
		if p.NumContributors != nil {
			contributors = sql.NullInt64{Int64: int64(*p.NumContributors), Valid: true}
		}
		var synced sql.NullTime
		if p.SyncedAt != nil {
			synced = sql.NullTime{Time: *p.SyncedAt, Valid: true}
		}

		query, args, err := db.PSQL.Insert("projects").
			Columns(columns...).
			Values(
				p.RepositoryID,
				pq.Array(p.MentorIDs),
				pq.Array(p.InterestedUserIDs),
				p.NumMentors,
				p.NumInterestedUsers,
				contributors,
				synced,
			).
			Suffix(`ON CONFLICT (repository_id) DO UPDATE SET
mentor_ids = EXCLUDED.mentor_ids,
interested_user_ids = EXCLUDED.interested_user_ids,
num_mentors = EXCLUDED.num_mentors,
num_interested_users = EXCLUDED.num_interested_users,
num_contributors = EXCLUDED.num_contributors,
synced_with_github_at = EXCLUDED.synced_with_github_at,
updated_at = NOW()`).ToSql()
		if err != nil {
			return fmt.Errorf("to sql error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert project %s error: %w", p.RepositoryID, err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		p            Project
		contributors sql.NullInt64
		synced       sql.NullTime
	)
	err := row.Scan(
		&p.RepositoryID,
		pq.Array(&p.MentorIDs),
		pq.Array(&p.InterestedUserIDs),
		&p.NumMentors,
		&p.NumInterestedUsers,
		&contributors,
		&synced,
	)
	if err != nil {
		return nil, err
	}

	if contributors.Valid {
		n := int(contributors.Int64)
		p.NumContributors = &n
	}
	if synced.Valid {
		t := synced.Time
		p.SyncedAt = &t
	}
	if p.MentorIDs == nil {
		p.MentorIDs = []string{}
	}
	if p.InterestedUserIDs == nil {
		p.InterestedUserIDs = []string{}
	}
	return &p, nil
}
