package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// minPasswordWidth is the length of a bcrypt hash.
const minPasswordWidth = 60

// statements are applied in order. The later ones bring a pre-existing
// accounts table up to what the repositories need: a password column wide
// enough for a bcrypt hash and a unique username.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_id BIGSERIAL PRIMARY KEY,
		username   VARCHAR(50) NOT NULL UNIQUE,
		password   VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS personinfo (
		account_id BIGINT PRIMARY KEY REFERENCES accounts(account_id) ON DELETE CASCADE,
		first_name VARCHAR(50),
		last_name  VARCHAR(50)
	)`,
	fmt.Sprintf(`DO $$
	BEGIN
		IF EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema()
			  AND table_name = 'accounts'
			  AND column_name = 'password'
			  AND character_maximum_length < %d
		) THEN
			ALTER TABLE accounts ALTER COLUMN password TYPE VARCHAR(100);
		END IF;
	END $$`, minPasswordWidth),
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_key ON accounts (username)`,
}

// AutoMigrate creates the accounts and personinfo tables if they do not
// exist and converges an existing accounts table. Each statement is retried
// up to retries times, one second apart, to ride out a database that is
// still starting.
func AutoMigrate(ctx context.Context, db *sql.DB, retries int) error {
	for _, stmt := range statements {
		var err error
		for attempt := 0; attempt <= retries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
				}
			}
			if _, err = db.ExecContext(ctx, stmt); err == nil {
				break
			}
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("schema statement failed")
		}
		if err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
