// Package output renders controller responses and CLI data.
//
//   - formatter.go: Formatter interface and factory
//   - response.go: Renderer for controller response bodies
//   - table.go: plain column tables for local listings
//   - json.go, yaml.go: machine-readable output
//
// Controller responses in table form are drawn with lipgloss and followed
// by a "Total: N" line; json and yaml output carry the same count.
package output
