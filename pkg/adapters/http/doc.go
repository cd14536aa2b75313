// Package http exposes a sinew engine over HTTP: asset listing and
// description, validation, Mermaid diagrams, frame evaluation, asset editing
// and a server-sent stream of asset changes.
package http
