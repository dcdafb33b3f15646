// Package logger provides structured logging for sdncli.
//
//   - logger.go: Logger interface over hashicorp/go-hclog
//   - context.go: invocation and request ids carried in context.Context
//   - redact.go: masking of passwords and tokens
//
// Output goes to stderr in text (default) or JSON form; the default level
// is warn so that normal command output is not interleaved with logs.
package logger
