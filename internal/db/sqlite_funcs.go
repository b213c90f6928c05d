package db

import (
	"database/sql/driver"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
)

// SQLiteLower names a SQL function that lowercases text with Unicode rules.
// SQLite's own lower() and LIKE only fold ASCII letters.
const SQLiteLower = "unicode_lower"

var (
	registerOnce sync.Once
	registerErr  error
)

// registerSQLiteFunctions makes the package's SQL functions available to every
// SQLite connection opened afterwards.
func registerSQLiteFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction(SQLiteLower, 1, unicodeLower)
	})
	return registerErr
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		// a Caser keeps state, so each call gets its own
		return cases.Lower(language.Und).String(v), nil
	case []byte:
		return cases.Lower(language.Und).String(string(v)), nil
	default:
		return v, nil
	}
}
