//go:build !native_sqlite
// +build !native_sqlite

package dataset

import (
	_ "github.com/mattn/go-sqlite3"
)

const SQLiteDriverName = "sqlite3"
