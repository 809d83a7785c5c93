package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/jedisct1/dlog"
	"golang.org/x/net/http2"
	netproxy "golang.org/x/net/proxy"
)

const DefaultHTTPSPort = 443

type XTransport struct {
	sync.RWMutex
	transport         *http.Transport
	keepAlive         time.Duration
	timeout           time.Duration
	userAgent         string
	tlsRootCA         string
	pinnedAddrs       map[string]string
	proxyURL          *url.URL
	proxyDialer       *netproxy.Dialer
	httpProxyFunction func(*http.Request) (*url.URL, error)
}

func NewXTransport(settings Settings) *XTransport {
	return &XTransport{
		keepAlive:         settings.KeepAlive,
		timeout:           settings.DoHTimeout,
		userAgent:         settings.UserAgent,
		tlsRootCA:         settings.TLSRootCA,
		pinnedAddrs:       make(map[string]string),
		proxyURL:          settings.ProxyURL,
		httpProxyFunction: settings.HTTPProxyFunction,
	}
}

// pinAddress makes connections to host go to ip, skipping name resolution.
func (xTransport *XTransport) pinAddress(host string, ip string) {
	xTransport.Lock()
	xTransport.pinnedAddrs[host] = ip
	xTransport.Unlock()
}

func (xTransport *XTransport) pinnedAddress(host string) (string, bool) {
	xTransport.RLock()
	ip, ok := xTransport.pinnedAddrs[host]
	xTransport.RUnlock()
	return ip, ok
}

func (xTransport *XTransport) tlsConfig() (*tls.Config, error) {
	certPool, err := x509.SystemCertPool()
	if err != nil || certPool == nil {
		dlog.Debugf("System certificate pool unavailable: %v", err)
		certPool = x509.NewCertPool()
	}
	if len(xTransport.tlsRootCA) > 0 {
		pem, err := os.ReadFile(xTransport.tlsRootCA)
		if err != nil {
			return nil, fmt.Errorf("Unable to read the root CA bundle [%s]: %w", xTransport.tlsRootCA, err)
		}
		if !certPool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("No certificate found in [%s]", xTransport.tlsRootCA)
		}
	}
	return &tls.Config{
		RootCAs:            certPool,
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(10),
	}, nil
}

func (xTransport *XTransport) rebuildTransport() error {
	dlog.Debug("Rebuilding transport")
	if xTransport.transport != nil {
		xTransport.transport.CloseIdleConnections()
	}
	if xTransport.proxyURL != nil {
		proxyDialer, err := netproxy.FromURL(xTransport.proxyURL, netproxy.Direct)
		if err != nil {
			return fmt.Errorf("Unable to use the proxy: [%v]", err)
		}
		xTransport.proxyDialer = &proxyDialer
	}
	timeout := xTransport.timeout
	transport := &http.Transport{
		DisableKeepAlives:      false,
		DisableCompression:     true,
		MaxIdleConns:           1,
		IdleConnTimeout:        xTransport.keepAlive,
		ResponseHeaderTimeout:  timeout,
		ExpectContinueTimeout:  timeout,
		MaxResponseHeaderBytes: 4096,
		DialContext: func(ctx context.Context, network, addrStr string) (net.Conn, error) {
			host, port := ExtractHostAndPort(addrStr, DefaultHTTPSPort)
			if ip, ok := xTransport.pinnedAddress(host); ok {
				dlog.Debugf("[%s] dialing pinned address [%s]", host, ip)
				host = ip
			}
			addrStr = JoinHostPort(host, port)
			if xTransport.proxyDialer == nil {
				dialer := &net.Dialer{Timeout: timeout, KeepAlive: timeout}
				return dialer.DialContext(ctx, network, addrStr)
			}
			return (*xTransport.proxyDialer).Dial(network, addrStr)
		},
	}
	if xTransport.httpProxyFunction != nil {
		transport.Proxy = xTransport.httpProxyFunction
	}
	tlsClientConfig, err := xTransport.tlsConfig()
	if err != nil {
		return err
	}
	transport.TLSClientConfig = tlsClientConfig
	if err := http2.ConfigureTransport(transport); err != nil {
		dlog.Debugf("HTTP/2 unavailable: %v", err)
	}
	xTransport.transport = transport
	return nil
}

func (xTransport *XTransport) Fetch(
	ctx context.Context,
	method string,
	url *url.URL,
	accept string,
	timeout time.Duration,
) ([]byte, int, time.Duration, error) {
	if xTransport.transport == nil {
		return nil, 0, 0, errors.New("Transport not initialized")
	}
	if timeout <= 0 {
		timeout = xTransport.timeout
	}
	client := http.Client{
		Transport: xTransport.transport,
		Timeout:   timeout,
	}
	req, err := http.NewRequestWithContext(ctx, method, url.String(), nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("User-Agent", xTransport.userAgent)
	if len(accept) > 0 {
		req.Header.Set("Accept", accept)
	}
	start := time.Now()
	resp, err := client.Do(req)
	rtt := time.Since(start)
	if err != nil {
		dlog.Debugf("HTTP client error: [%v] - closing idle connections", err)
		xTransport.transport.CloseIdleConnections()
		return nil, 0, rtt, err
	}
	defer resp.Body.Close()
	statusCode := resp.StatusCode
	if statusCode < 200 || statusCode > 299 {
		dlog.Debugf("[%s]: [%s]", req.URL, resp.Status)
		return nil, statusCode, rtt, errors.New(resp.Status)
	}
	bin, err := io.ReadAll(io.LimitReader(resp.Body, MaxHTTPBodyLength))
	if err != nil {
		return nil, statusCode, rtt, err
	}
	return bin, statusCode, rtt, nil
}

func (xTransport *XTransport) Get(
	ctx context.Context,
	url *url.URL,
	accept string,
	timeout time.Duration,
) ([]byte, int, time.Duration, error) {
	return xTransport.Fetch(ctx, "GET", url, accept, timeout)
}

func (xTransport *XTransport) DoHJSONQuery(
	ctx context.Context,
	url *url.URL,
	timeout time.Duration,
) ([]byte, int, time.Duration, error) {
	return xTransport.Get(ctx, url, DNSJSONMediaType, timeout)
}
