package main

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	DefaultDNSPort      = 53
	DefaultDoHURL       = "https://dns.google/resolve"
	DefaultFallbackAddr = "9.9.9.9:53"
	DefaultQueryTimeout = 5 * time.Second
	DefaultDoHTimeout   = 10 * time.Second
	DefaultAXFRTimeout  = 15 * time.Second
	DNSJSONMediaType    = "application/dns-json"
	MaxHTTPBodyLength   = 1000000
	MaxDNSUDPPacketSize = 4096
	ResolvConfPath      = "/etc/resolv.conf"
	tableRuleWidth      = 40
	zoneRuleWidth       = 100
	recordTypeColumn    = 8
	retryInitialBackoff = 150 * time.Millisecond
	retryMaxBackoff     = 1 * time.Second
)

var defaultRecordTypes = [...]string{"A", "AAAA", "CNAME", "MX", "NS", "PTR", "SOA", "SRV", "TXT"}

// DefaultRecordTypes returns a fresh copy of the record types queried when none is given.
func DefaultRecordTypes() []string {
	recordTypes := make([]string, len(defaultRecordTypes))
	copy(recordTypes, defaultRecordTypes[:])
	return recordTypes
}

func recordTypesFor(settings Settings, recordType string) []string {
	if len(recordType) > 0 {
		return []string{strings.ToUpper(recordType)}
	}
	if len(settings.RecordTypes) > 0 {
		return settings.recordTypes()
	}
	return DefaultRecordTypes()
}

func ExtractHostAndPort(str string, defaultPort int) (host string, port int) {
	host, port = str, defaultPort
	if idx := strings.LastIndex(str, ":"); idx >= 0 && idx < len(str)-1 {
		if strings.Count(str, ":") > 1 && !strings.Contains(str, "]") {
			// bare IPv6 address, no port
			return host, port
		}
		if portX, err := strconv.Atoi(str[idx+1:]); err == nil {
			host, port = host[:idx], portX
		}
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), port
}

func ParseIP(ipStr string) net.IP {
	return net.ParseIP(strings.TrimRight(strings.TrimLeft(ipStr, "["), "]"))
}

func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func fqdn(name string) string {
	return dns.Fqdn(name)
}

func StripTrailingDot(str string) string {
	if len(str) > 1 && strings.HasSuffix(str, ".") {
		str = str[:len(str)-1]
	}
	return str
}

func StringQuote(str string) string {
	str = strconv.QuoteToGraphic(str)
	return str[1 : len(str)-1]
}

// rdataText returns the presentation form of an RR without its header.
func rdataText(rr dns.RR) string {
	return strings.TrimPrefix(rr.String(), rr.Header().String())
}
