//go:build sqlite_cgo

package sharding

// CGO SQLite. Build with:
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver used for "sqlite" shards
const SQLiteDriverName = "sqlite3"
