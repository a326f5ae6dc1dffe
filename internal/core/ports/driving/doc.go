// Package driving defines the interfaces through which the CLI drives the
// pipeline core.
package driving
