// Package cli implements the authctl command tree: init, ping, register,
// login, refresh, logout and session. Tokens live in the OS keychain
// between invocations.
package cli
