package common

import "errors"

var (
	// ErrAuthentication is returned when the login call itself fails: bad
	// credentials, an undecodable login result or a transport failure.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTokenExpired matches any APIError carrying CodeExpiredToken.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotFound matches any APIError carrying CodeNotFound. It does not
	// distinguish directories from files.
	ErrNotFound = errors.New("not found")

	// ErrRetriesExhausted is wrapped by the APIError returned when a retry
	// budget was consumed without success.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrRPCFault is wrapped when a JSON-RPC response has a non-null error.
	ErrRPCFault = errors.New("rpc fault")
)
