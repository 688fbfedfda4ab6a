package db

import (
	"strings"

	"github.com/publicrust/DotnetDllParser/errors"
)

// ErrDatabaseClosed marks operations on an index that was already closed,
// e.g. a watch batch finishing after Ctrl-C closed the ledger.
var ErrDatabaseClosed = errors.New("database is closed")

// closedMessage is what database/sql reports for a closed *sql.DB
const closedMessage = "database is closed"

// IsDatabaseClosed reports whether err is, or wraps, a closed-database
// error, either marked with ErrDatabaseClosed or straight from database/sql.
func IsDatabaseClosed(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrDatabaseClosed):
		return true
	default:
		return strings.Contains(err.Error(), closedMessage)
	}
}
