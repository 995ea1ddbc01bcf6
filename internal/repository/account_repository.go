package repository

import (
	"context"
	"database/sql"

	"github.com/eaglebank/accounts-api/shared/apperr"
	"github.com/eaglebank/accounts-api/shared/models"
)

// AccountWriteRepository handles all state-mutating operations for accounts
// and their person info. Multi-table writes run in a single transaction.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

// CreateWithPerson inserts the account and its personinfo row atomically.
// On success account.AccountID and person.AccountID are set.
func (r *AccountWriteRepository) CreateWithPerson(ctx context.Context, account *models.Account, person *models.PersonInfo) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "Failed to create account")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO accounts (username, password)
		VALUES ($1, $2)
		RETURNING account_id
	`
	err = tx.QueryRowContext(ctx, query, account.Username, account.PasswordHash).
		Scan(&account.AccountID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("Username already exists", err)
		}
		return classify(err, "Failed to create account")
	}

	person.AccountID = account.AccountID
	_, err = tx.ExecContext(ctx,
		`INSERT INTO personinfo (account_id, first_name, last_name) VALUES ($1, $2, $3)`,
		person.AccountID, nullString(person.FirstName), nullString(person.LastName),
	)
	if err != nil {
		return classify(err, "Failed to create person info")
	}

	if err := tx.Commit(); err != nil {
		return classify(err, "Failed to create account")
	}
	return nil
}

// DeleteByUsername removes the account and its personinfo row and returns the
// id the account had.
func (r *AccountWriteRepository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(err, "Failed to delete account")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM personinfo
		WHERE account_id IN (SELECT account_id FROM accounts WHERE username = $1)
	`, username)
	if err != nil {
		return 0, classify(err, "Failed to delete person info")
	}

	var accountID int64
	err = tx.QueryRowContext(ctx,
		`DELETE FROM accounts WHERE username = $1 RETURNING account_id`, username,
	).Scan(&accountID)
	if err != nil {
		return 0, classify(err, "Failed to delete account")
	}

	if err := tx.Commit(); err != nil {
		return 0, classify(err, "Failed to delete account")
	}
	return accountID, nil
}
