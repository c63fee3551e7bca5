// Package config loads the JSON run configuration shared by the command
// line tools. Command line flags override the loaded values.
package config
