// Package command provides the sdncli command tree.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags and the per-invocation Runtime
//   - resource.go: one command per registry entry with create, update,
//     delete, show, list and oper verbs
//   - attr.go: KEY=<json> attribute and filter parsing
//   - request.go: raw URI requests and request files
//   - builtin.go: token, cache, decode, timestamp, resources, version
//   - config.go: configuration subcommand group
//   - shell.go: interactive shell
//
// Commands follow a consistent pattern of parsing flags, running the
// service layer through the Runtime, and rendering through output.
package command
