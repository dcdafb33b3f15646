// Package buildinfo exposes the sdncli version, commit and build time for
// `sdncli version` and the HTTP User-Agent header.
package buildinfo
