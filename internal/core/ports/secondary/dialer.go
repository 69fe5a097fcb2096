package secondary

import (
	"context"
	"net"
)

// Dialer opens a duplex byte stream to host:port.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
