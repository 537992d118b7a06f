package go_openid

import (
	"context"
	"fmt"
)

// MessageChannel is the external message-transport boundary: a blocking
// request/response round trip against one provider endpoint. HTTP
// serialization, request correlation and endpoint discovery live behind
// implementations of this interface, outside this library.
//
// A channel error of any kind is a transport failure to the negotiation
// engine; the relying party never distinguishes timeout from unreachable
// from undecodable.
type MessageChannel interface {
	Request(ctx context.Context, req *AssociateRequest) (*AssociateResponse, error)
}

// MessageChannelFunc adapts a plain function to the MessageChannel
// interface.
type MessageChannelFunc func(ctx context.Context, req *AssociateRequest) (*AssociateResponse, error)

// Request implements MessageChannel.
func (f MessageChannelFunc) Request(ctx context.Context, req *AssociateRequest) (*AssociateResponse, error) {
	return f(ctx, req)
}

// LocalChannel serves a Provider in-process, with no wire in between. Used
// when relying party and provider are co-hosted, and by tests.
type LocalChannel struct {
	provider        *Provider
	secureTransport bool
}

// NewLocalChannel wraps a provider in a channel. secureTransport declares
// the security of the notional transport between the two sides, which the
// provider's policy evaluates exactly as it would for a remote request.
func NewLocalChannel(provider *Provider, secureTransport bool) *LocalChannel {
	return &LocalChannel{provider: provider, secureTransport: secureTransport}
}

// Request implements MessageChannel.
func (c *LocalChannel) Request(ctx context.Context, req *AssociateRequest) (*AssociateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("local association request cancelled: %w", err)
	}
	return c.provider.HandleAssociate(req, c.secureTransport), nil
}

var _ MessageChannel = (*LocalChannel)(nil)
var _ MessageChannel = (MessageChannelFunc)(nil)
