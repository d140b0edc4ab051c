//go:build sqlite_vec && cgo

package vectordb

import (
	"database/sql"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"
)

// With the sqlite_vec tag the real extension provides vec_distance_cosine.
func init() {
	vec.Auto()
	sql.Register(driverName, &sqlite3.SQLiteDriver{})
}
