// Package tlsroots builds client TLS settings for talking to the
// controller over HTTPS: system roots, an optional CA bundle, an optional
// client certificate and an insecure mode for lab setups.
package tlsroots
