// Package web embeds the HTML templates and static assets served by
// cmd/moneygr.
package web

import "embed"

// TemplatesFS holds layout.html plus one file per page.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
