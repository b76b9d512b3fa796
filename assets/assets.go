// Package assets embeds the sources of the API page.
package assets

import _ "embed"

// Template is the page layout; CSS and JS are inlined into it.
//
//go:embed index.html.tpl
var Template string

// Style is the page stylesheet.
//
//go:embed style.css
var Style string

// Script is the page script.
//
//go:embed script.js
var Script string
