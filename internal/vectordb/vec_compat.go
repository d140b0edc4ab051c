//go:build !(sqlite_vec && cgo)

package vectordb

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

// Without the extension, vec_distance_cosine is registered as a Go function
// on every connection.
func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("vec_distance_cosine", distanceCosine, true)
		},
	})
}
