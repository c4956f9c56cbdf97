//go:build !cgo_sqlite

// Pure Go SQLite driver (modernc.org/sqlite). This is the default build.
package catalog

import (
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"
