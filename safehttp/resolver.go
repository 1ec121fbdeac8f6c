package safehttp

import (
	"context"
	"net"
)

// Resolver turns a hostname into candidate IP literals. Implementations
// must not cache: every fetch hop performs a fresh resolution so the
// validated address is the one the socket connects to.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// systemResolver resolves through the operating system resolver.
type systemResolver struct{}

func (systemResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// SystemResolver returns the default, uncached system resolver.
func SystemResolver() Resolver {
	return systemResolver{}
}
