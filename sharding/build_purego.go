//go:build !sqlite_cgo

package sharding

// Pure Go SQLite, no C compiler required. Default build.

import (
	_ "modernc.org/sqlite"
)

// SQLiteDriverName is the database/sql driver used for "sqlite" shards
const SQLiteDriverName = "sqlite"
