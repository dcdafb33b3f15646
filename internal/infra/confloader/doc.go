// Package confloader layers configuration sources with koanf.
//
// Sources, lowest priority first:
//
//  1. Values already in the target struct (defaults)
//  2. A configuration file, TOML or YAML by extension
//  3. Environment variables carrying the loader's prefix
//
// The target struct uses `koanf` tags for field mapping.
package confloader
