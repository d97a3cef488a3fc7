//go:build !cgo_sqlite

package mailconf

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const driverName = "sqlite"
