package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS

// GetFS returns the migrations of the given database driver
func GetFS(driver string) (fs.FS, error) {
	switch driver {
	case "sqlite", "postgres":
		return fs.Sub(Files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %s", driver)
	}
}
