package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ErrInvalidProxyAddress is returned when the proxy address is not in
// "host:port" format.
var ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

// NewClient creates an HTTP client for crawling.
//
// When proxyAddress is non-empty, all connections are dialed through a
// SOCKS5 proxy at that address. The proxy is not contacted here; a bad
// proxy surfaces on the first fetch.
//
// Design decision: We return a plain *http.Client rather than wrapping
// it because the fetcher, the robots cache, and tests all want to
// configure their own timeouts on top of the shared transport.
func NewClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// isValidProxyAddress checks for "host:port" format with a numeric port.
func isValidProxyAddress(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 || parts[0] == "" {
		return false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return port > 0 && port <= 65535
}
