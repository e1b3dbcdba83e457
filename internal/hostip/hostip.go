// Package hostip determines the address literal to store for a host.
//
// Resolution order: an explicitly supplied address always wins, then a DNS
// lookup of the hostname, then the machine's primary outbound address as a
// last resort. The outbound probe opens a UDP socket without sending any
// packet, so it works without reachability to the probe target.
package hostip

import (
	"context"
	"fmt"
	"net"
)

// DefaultProbeAddr is the dial target for discovering the primary outbound
// interface. No traffic is sent to it.
const DefaultProbeAddr = "8.8.8.8:80"

// Resolver resolves hostnames to stored address literals.
// The zero value uses the system resolver and the default probe target.
type Resolver struct {
	// LookupHost overrides DNS resolution. Nil means net.DefaultResolver.
	LookupHost func(ctx context.Context, host string) ([]string, error)

	// ProbeAddr overrides the outbound probe target.
	ProbeAddr string
}

// Resolve returns the address to store for hostname. A non-empty explicit
// address is returned verbatim; otherwise the hostname is looked up, and a
// loopback or failed lookup falls back to the primary outbound address.
func (r *Resolver) Resolve(ctx context.Context, hostname, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if addr, ok := r.lookup(ctx, hostname); ok {
		return addr, nil
	}

	addr, err := r.primaryAddr(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", hostname, err)
	}
	return addr, nil
}

// lookup returns the first usable (non-loopback) address for hostname.
func (r *Resolver) lookup(ctx context.Context, hostname string) (string, bool) {
	lookupHost := r.LookupHost
	if lookupHost == nil {
		lookupHost = net.DefaultResolver.LookupHost
	}

	addrs, err := lookupHost(ctx, hostname)
	if err != nil {
		return "", false
	}

	// Prefer IPv4 so the stored literal matches what operators expect
	// to see in inventories.
	var first string
	for _, a := range addrs {
		ip := net.ParseIP(a)
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip.To4() != nil {
			return a, true
		}
		if first == "" {
			first = a
		}
	}
	return first, first != ""
}

// primaryAddr reports the local address the kernel would route outbound
// traffic from. Connecting a UDP socket performs route selection without
// sending anything.
func (r *Resolver) primaryAddr(ctx context.Context) (string, error) {
	probe := r.ProbeAddr
	if probe == "" {
		probe = DefaultProbeAddr
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", probe)
	if err != nil {
		return "", fmt.Errorf("probe outbound address: %w", err)
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("probe outbound address: unexpected local addr %T", conn.LocalAddr())
	}
	return local.IP.String(), nil
}
