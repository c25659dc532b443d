// Package web holds the embedded chat page served at the application root.
package web

import (
	_ "embed"
)

//go:embed index.html
var indexHTML string

// IndexHTML returns the chat page markup.
func IndexHTML() string {
	return indexHTML
}
