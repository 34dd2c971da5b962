// Package migrations embeds the numbered schema migrations for the SQL record backends.
package migrations

import (
	"embed"
	"io/fs"
)

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Sub returns the migrations for one dialect directory.
func Sub(dir string) (fs.FS, error) {
	sub, err := fs.Sub(FS, dir)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
