package db

import (
	"context"
	"fmt"
)

const schemaMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text,
    email_verified boolean NOT NULL DEFAULT false,
    status text NOT NULL DEFAULT 'active',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique
ON users (LOWER(email)) WHERE email IS NOT NULL;

CREATE TABLE IF NOT EXISTS identities (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    provider text NOT NULL,
    provider_user_id text NOT NULL,
    login text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT identities_provider_unique
        UNIQUE (provider, provider_user_id)
);

CREATE INDEX IF NOT EXISTS identities_user_id_idx
ON identities (user_id);

CREATE TABLE IF NOT EXISTS interest_tags (
    user_id uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    position int NOT NULL,
    tag text NOT NULL,
    PRIMARY KEY (user_id, position),
    CONSTRAINT interest_tags_user_tag_unique UNIQUE (user_id, tag)
);

CREATE TABLE IF NOT EXISTS projects (
    repository_id text PRIMARY KEY,
    mentor_ids text[] NOT NULL DEFAULT '{}',
    interested_user_ids text[] NOT NULL DEFAULT '{}',
    num_mentors int NOT NULL DEFAULT 0,
    num_interested_users int NOT NULL DEFAULT 0,
    num_contributors int,
    synced_with_github_at timestamptz,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS projects_num_mentors_idx ON projects (num_mentors);
CREATE INDEX IF NOT EXISTS projects_num_interested_users_idx ON projects (num_interested_users);
CREATE INDEX IF NOT EXISTS projects_num_contributors_idx ON projects (num_contributors);
CREATE INDEX IF NOT EXISTS projects_synced_idx ON projects (synced_with_github_at);
`

// Migrate applies the idempotent schema.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, schemaMigration); err != nil {
		return fmt.Errorf("migrate error: %w", err)
	}
	return nil
}
