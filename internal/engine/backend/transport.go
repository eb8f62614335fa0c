package backend

import (
	"context"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
)

// fingerprintDialer opens TLS connections that present a Chrome ClientHello.
// Some CDNs in front of map data throttle the Go default handshake.
type fingerprintDialer struct {
	net *net.Dialer
}

// helloSpec is the Chrome ClientHello restricted to HTTP/1.1, since
// http.Transport only speaks h2 over its own TLS connections.
func helloSpec() (utls.ClientHelloSpec, error) {
	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
	if err != nil {
		return spec, err
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return spec, nil
}

func (d fingerprintDialer) DialTLSContext(ctx context.Context, network, addr string) (net.Conn, error) {
	spec, err := helloSpec()
	if err != nil {
		return nil, err
	}
	serverName, _, err := net.SplitHostPort(addr)
	if err != nil {
		serverName = addr
	}

	raw, err := d.net.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	conn := utls.UClient(raw, &utls.Config{ServerName: serverName}, utls.HelloCustom)
	if err = conn.ApplyPreset(&spec); err == nil {
		err = conn.HandshakeContext(ctx)
	}
	if err != nil {
		raw.Close()
		return nil, err
	}
	return conn, nil
}

// NewTransport returns an http.Transport whose HTTPS connections go through
// fingerprintDialer. Plain HTTP uses the normal dialer.
func NewTransport() *http.Transport {
	d := fingerprintDialer{net: &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         d.net.DialContext,
		DialTLSContext:      d.DialTLSContext,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// NewHTTPClient wraps NewTransport with a request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Transport: NewTransport(), Timeout: timeout}
}
