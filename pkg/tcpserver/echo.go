package tcpserver

import (
	"context"
)

type echoHandler struct{}

// NewEchoHandler returns a handler answering every request with its own bytes.
func NewEchoHandler() Handler {
	return echoHandler{}
}

func (h echoHandler) Handle(_ context.Context, req []byte) ([]byte, error) {
	return req, nil
}
