// Package service turns CLI invocations into controller requests.
//
//   - NameResolver: name to UUID lookup with pluggable disambiguation
//   - Chooser: prompt, fail-fast and latest-created strategies
//   - Executor: parent resolution, per-name envelope building, dispatch
//     and rendering
//
// The package only depends on the Dispatcher and Renderer interfaces, so
// the transport and the output format are injected by the command layer.
package service
