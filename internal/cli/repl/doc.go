// Package repl provides the interactive shell of sdncli.
//
//   - shell.go: liner-backed read-eval loop
//   - completer.go: tab completion over command words
//   - history.go: history file location and persistence
//   - split.go: shell-like splitting of an input line into arguments
package repl
