package api

import "errors"

var (
	// ErrNoController is returned when the server is built without a controller.
	ErrNoController = errors.New("api server requires a controller")

	// ErrNoListenAddress is returned by Run when no address is configured.
	ErrNoListenAddress = errors.New("no listen address configured")
)
