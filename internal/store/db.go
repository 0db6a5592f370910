package store

import (
	"errors"
	"fulfillment-server/internal/observability"

	_ "github.com/jackc/pgx/v5/stdlib" // Import the pgx stdlib for sqlx
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("not found")

// ErrNoAvailableUnits is returned by ClaimRewardUnit when the target pool has
// no claimable units left. Callers must distinguish this from other failures
// because its remediation (restocking inventory) differs.
var ErrNoAvailableUnits = errors.New("no available reward units in pool")

type Store struct {
	db     *sqlx.DB
	logger *observability.Logger
}

func New(connectionString string, logger *observability.Logger) (Store, error) {
	db, err := sqlx.Open("pgx", connectionString)
	if err != nil {
		return Store{}, err
	}
	return Store{db: db, logger: logger}, nil
}

// DB returns the underlying database connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}
