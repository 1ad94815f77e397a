package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrAlreadyFinalized is returned when a finalize call finds the session no
// longer in progress. The compare-and-set update matched zero rows, so
// another request already performed the terminal transition.
var ErrAlreadyFinalized = errors.New("session already finalized")

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
