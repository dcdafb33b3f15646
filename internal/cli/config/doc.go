// Package config provides sdncli configuration.
//
//   - spec.go: CLIConfig struct (~/.sdncli/config.toml) and the built-in
//     resource table
//   - loader.go: path resolution, loading, validation
//   - request.go: raw request files for `sdncli request --file`
package config
