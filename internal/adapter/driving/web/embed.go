package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet).
//
//go:embed static/*
var StaticFS embed.FS

// contentFS holds the Markdown sources of the marketing pages.
//
//go:embed content/*.md
var contentFS embed.FS

// templateFS holds the html/template layout and page templates.
//
//go:embed templates/*.html
var templateFS embed.FS
