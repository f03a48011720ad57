// Package internal contains the core implementation packages for spry.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the spry CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: configuration management with viper and validation
//   - errors: the structured error taxonomy shared across packages
//   - logging: structured logging on slog
//   - protocol: the JSON control protocol wire types
//   - state: the mutable serving target (directory root or direct file)
//   - reload: the broadcast hub fanning reload signals to clients
//   - watcher: filesystem monitoring with debouncing and rebinding
//   - server: HTTP serving, script injection, control and reload endpoints
//   - client: control-protocol client used by the CLI and the browser
//   - browse: the interactive terminal file browser
//
// # Inter-Package Communication
//
// The state package is the single mutation point: control commands update
// it, it nudges the watcher to rebind, and it publishes reload signals to
// the hub. The server coordinates between all of them and handles HTTP
// requests; the watcher monitors the filesystem and publishes to the hub
// directly for content changes.
package internal
