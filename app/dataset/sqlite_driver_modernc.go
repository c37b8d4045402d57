//go:build native_sqlite
// +build native_sqlite

package dataset

import (
	_ "modernc.org/sqlite"
)

const SQLiteDriverName = "sqlite"
