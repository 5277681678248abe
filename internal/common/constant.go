// Package common contains shared constants and sentinel errors used across
// sessionkeeper components.
package common

// AuthorizationHeaderName is the gRPC metadata key carrying the bearer access
// token on protected calls.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the access token inside the authorization header.
const BearerPrefix = "Bearer "

// UserAgentHeaderName is recorded as device info when a session is opened.
const UserAgentHeaderName = "user-agent"

// RequestIDHeaderName is echoed back to the caller in response headers.
const RequestIDHeaderName = "x-request-id"
