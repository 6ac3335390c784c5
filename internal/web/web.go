// Package web embeds the dashboard page and its static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed index.html static
var assets embed.FS

// Index returns the dashboard page.
func Index() ([]byte, error) {
	return assets.ReadFile("index.html")
}

// Static returns a handler serving the files under static/. Mount it with
// the "/static/" prefix stripped.
func Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// static is compiled in; Sub only fails on an invalid path.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
