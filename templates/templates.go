// Package templates embeds the HTML views rendered through gin.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed layout.html partials/*.html pages/*.html static/*
var FS embed.FS

// Static returns the embedded assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
