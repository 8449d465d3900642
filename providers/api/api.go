/*
Package api holds what is shared by the package registry clients living in its subpackages.
*/
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gonkers/pkgtools/internal/build"
)

var (
	// ErrUnreachable is returned when a request could not be sent or its response could not be read.
	ErrUnreachable = errors.New("registry unreachable")
	// ErrProtocol is returned when a registry answers with an error status or an unexpected body.
	ErrProtocol = errors.New("registry protocol error")
	// ErrNotFound is returned when a registry answers 404.
	ErrNotFound = errors.New("registry resource not found")
)

// UserAgent is sent with every registry request.
func UserAgent() string {
	return "pkgtools/" + build.Version
}

// StatusError classifies a registry HTTP status. It returns nil for statuses below 400.
func StatusError(registry string, code int) error {
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s responded with HTTP error '%d: %s'", ErrNotFound, registry, code, http.StatusText(code))
	case code >= 400:
		return fmt.Errorf("%w: %s responded with HTTP error '%d: %s'", ErrProtocol, registry, code, http.StatusText(code))
	}
	return nil
}
