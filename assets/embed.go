package assets

import (
	"embed"
	"io/fs"
)

//go:embed themes.json sql/*.sql
var FS embed.FS

// ThemesJSON returns the built-in theme catalog.
func ThemesJSON() ([]byte, error) {
	return FS.ReadFile("themes.json")
}

// Migrations returns the migration scripts rooted at the sql directory.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
