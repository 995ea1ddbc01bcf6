package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/eaglebank/accounts-api/shared/models"
	sharedredis "github.com/eaglebank/accounts-api/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const accountListKey = "accounts:list"

// AccountReadRepository serves the account list. PostgreSQL is the source of
// truth; when a Redis client is supplied the full list is cached under a
// single key and invalidated by the command side on every mutation.
type AccountReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[[]models.AccountView]
}

// NewAccountReadRepository accepts a nil redisClient, in which case every
// read goes to PostgreSQL.
func NewAccountReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *AccountReadRepository {
	r := &AccountReadRepository{db: db}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[[]models.AccountView](redisClient, ttl)
	}
	return r
}

// List returns every account joined with its person info, ordered by id.
// The result is never nil.
func (r *AccountReadRepository) List(ctx context.Context) ([]models.AccountView, error) {
	views, err := r.cache.GetOrLoad(ctx, accountListKey, r.load)
	if err != nil {
		return nil, err
	}
	if *views == nil {
		return []models.AccountView{}, nil
	}
	return *views, nil
}

func (r *AccountReadRepository) load(ctx context.Context) (*[]models.AccountView, error) {
	query := `
		SELECT a.account_id, a.username, p.first_name, p.last_name
		FROM accounts a
		LEFT JOIN personinfo p ON p.account_id = a.account_id
		ORDER BY a.account_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err, "Failed to list accounts")
	}
	defer rows.Close()

	views := make([]models.AccountView, 0)
	for rows.Next() {
		var view models.AccountView
		var firstName, lastName sql.NullString
		if err := rows.Scan(&view.AccountID, &view.Username, &firstName, &lastName); err != nil {
			return nil, classify(err, "Failed to list accounts")
		}
		view.FirstName = firstName.String
		view.LastName = lastName.String
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "Failed to list accounts")
	}
	return &views, nil
}

// InvalidateList drops the cached account list. A List already reading from
// PostgreSQL when this runs will not write its result back.
func (r *AccountReadRepository) InvalidateList(ctx context.Context) {
	r.cache.Invalidate(ctx, accountListKey)
}
