// Package file loads the TOML configuration files: the source matrix in
// sources.toml, validated fail-fast at startup, and stored portal logins in
// credentials.toml, written with owner-only permissions.
package file
