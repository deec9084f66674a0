// Package assets embeds the files the binary ships with: SQL migrations and
// the default exercise catalog.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql exercises/*.hujson
var files embed.FS

// Migrations holds the *.sql files, applied in lexical order.
func Migrations() fs.FS { return sub("sql") }

// Exercises holds the default exercise files.
func Exercises() fs.FS { return sub("exercises") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		// dir is one of the embed patterns above
		panic(err)
	}
	return f
}
