// Package errs contains the closed set of error kinds reported by the session
// and gateway layers. Details are attached with fmt.Errorf("%w: ...").
package errs

import "errors"

var (
	// ErrNotConnected indicates no session (address and client) is present.
	ErrNotConnected = errors.New("not connected")

	// ErrExtensionUnavailable indicates the wallet extension is not installed or cannot be reached.
	ErrExtensionUnavailable = errors.New("wallet extension unavailable")

	// ErrTransportFailure indicates the node could not be reached or answered garbage.
	ErrTransportFailure = errors.New("transport failure")

	// ErrContractRejected indicates the node or contract refused the message.
	ErrContractRejected = errors.New("contract rejected")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request failed local validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")
)

var kinds = []error{
	ErrNotConnected,
	ErrExtensionUnavailable,
	ErrTransportFailure,
	ErrContractRejected,
	ErrNotFound,
	ErrInvalidInput,
	ErrUnauthorized,
}

// Kind returns the name of the first known kind err wraps, or "unknown".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "unknown"
}
