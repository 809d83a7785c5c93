package main

import (
	"fmt"
	"net/url"
	"strings"

	stamps "github.com/jedisct1/go-dnsstamps"
)

// DoHEndpoint is a DoH JSON API location. PinnedIP, when set, is dialed
// instead of resolving the URL host.
type DoHEndpoint struct {
	URL      *url.URL
	PinnedIP string
}

func ParseDoHEndpoint(baseURL string) (DoHEndpoint, error) {
	if strings.HasPrefix(baseURL, "sdns:") {
		return doHEndpointFromStamp(baseURL)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return DoHEndpoint{}, err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return DoHEndpoint{}, fmt.Errorf("Unsupported DoH URL scheme [%s]", u.Scheme)
	}
	if len(u.Host) == 0 {
		return DoHEndpoint{}, fmt.Errorf("DoH URL [%s] has no host", baseURL)
	}
	return DoHEndpoint{URL: u}, nil
}

func doHEndpointFromStamp(stampStr string) (DoHEndpoint, error) {
	stamp, err := stamps.NewServerStampFromString(stampStr)
	if err != nil {
		return DoHEndpoint{}, err
	}
	if stamp.Proto != stamps.StampProtoTypeDoH {
		return DoHEndpoint{}, fmt.Errorf("Stamp is for a %s server, not DoH", stamp.Proto.String())
	}
	path := stamp.Path
	if len(path) == 0 {
		path = "/resolve"
	}
	u := &url.URL{Scheme: "https", Host: stamp.ProviderName, Path: path}
	endpoint := DoHEndpoint{URL: u}
	if len(stamp.ServerAddrStr) > 0 {
		host, _ := ExtractHostAndPort(stamp.ServerAddrStr, DefaultHTTPSPort)
		if ip := ParseIP(host); ip != nil {
			endpoint.PinnedIP = ip.String()
		}
	}
	return endpoint, nil
}

// QueryURL appends name and type to the endpoint, keeping its own parameters.
func (endpoint DoHEndpoint) QueryURL(domain string, recordType string) *url.URL {
	u := *endpoint.URL
	qs := u.Query()
	qs.Set("name", domain)
	qs.Set("type", recordType)
	u.RawQuery = qs.Encode()
	return &u
}
