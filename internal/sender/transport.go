package sender

import (
	"bytes"
	"context"
	"fmt"

	gosmtp "github.com/emersion/go-smtp"
)

// TransportClient delivers a raw message to recipients outside the system.
type TransportClient interface {
	Send(ctx context.Context, from string, to []string, raw []byte) error
}

// relayTransport hands messages to the configured SMTP relay.
type relayTransport struct {
	addr string
}

// NewRelayTransport creates a TransportClient that submits to the SMTP
// relay at addr.
func NewRelayTransport(addr string) TransportClient {
	return &relayTransport{addr: addr}
}

func (t *relayTransport) Send(ctx context.Context, from string, to []string, raw []byte) error {
	if len(to) == 0 {
		return nil
	}

	// go-smtp's SendMail has no context support; run it aside so a
	// cancelled caller is not held up by a slow relay.
	done := make(chan error, 1)
	go func() {
		done <- gosmtp.SendMail(t.addr, nil, from, to, bytes.NewReader(raw))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("relay %s refused message: %w", t.addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
