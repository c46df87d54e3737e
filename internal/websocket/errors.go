// internal/websocket/errors.go
package websocket

import "errors"

var ErrHubFull = errors.New("websocket broadcast queue is full")
