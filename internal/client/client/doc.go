// Package client is the authctl side of SessionService.
//
// # Overview
//
// GRPCClient manages a connection to the sessionkeeper server, keeps the
// session tokens in a keychain, injects the access token into protected
// calls via an interceptor and transparently rotates the token pair when
// the server answers "token expired".
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrConflict, ErrNotFound,
// ErrInvalidInput and ErrNotLoggedIn. The server's client-safe message is
// kept in the error text.
package client
