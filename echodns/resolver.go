package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jedisct1/dlog"
	clocksmith "github.com/jedisct1/go-clocksmith"
	"github.com/miekg/dns"
)

// Resolver looks up name/qType on server, or on the system resolvers when
// server is empty. Failures are returned as *QueryError.
type Resolver interface {
	Resolve(ctx context.Context, name string, qType uint16, server string) ([]dns.RR, error)
}

type dnsResolver struct {
	timeout          time.Duration
	retries          int
	resolvConf       string
	fallbackResolver string
}

func NewResolver(settings Settings) Resolver {
	return &dnsResolver{
		timeout:          settings.QueryTimeout,
		retries:          settings.Retries,
		resolvConf:       settings.ResolvConf,
		fallbackResolver: settings.FallbackResolver,
	}
}

func (resolver *dnsResolver) systemServers() []string {
	config, err := dns.ClientConfigFromFile(resolver.resolvConf)
	if err != nil || len(config.Servers) == 0 {
		dlog.Debugf("No usable nameserver in [%s], using [%s]", resolver.resolvConf, resolver.fallbackResolver)
		return []string{resolver.fallbackResolver}
	}
	port, err := strconv.Atoi(config.Port)
	if err != nil {
		port = DefaultDNSPort
	}
	servers := make([]string, 0, len(config.Servers))
	for _, server := range config.Servers {
		servers = append(servers, JoinHostPort(server, port))
	}
	return servers
}

func (resolver *dnsResolver) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	client := dns.Client{Net: "udp", Timeout: resolver.timeout, UDPSize: MaxDNSUDPPacketSize}
	response, _, err := client.ExchangeContext(ctx, msg, server)
	if err == nil && response.Truncated {
		dlog.Debugf("Truncated response from [%s], retrying over TCP", server)
		client.Net = "tcp"
		response, _, err = client.ExchangeContext(ctx, msg, server)
	}
	return response, err
}

func (resolver *dnsResolver) exchangeWithRetries(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	backoff := retryInitialBackoff
	for attempt := 0; ; attempt++ {
		msg.Id = dns.Id()
		response, err := resolver.exchange(ctx, msg, server)
		if err == nil || attempt >= resolver.retries || ctx.Err() != nil {
			return response, err
		}
		if neterr, ok := err.(net.Error); !ok || !neterr.Timeout() {
			return response, err
		}
		dlog.Debugf("Timeout querying [%s], retrying in %v", server, backoff)
		clocksmith.Sleep(backoff)
		if backoff *= 2; backoff > retryMaxBackoff {
			backoff = retryMaxBackoff
		}
	}
}

func (resolver *dnsResolver) Resolve(ctx context.Context, name string, qType uint16, server string) ([]dns.RR, error) {
	recordType := dns.TypeToString[qType]
	servers := []string{server}
	if len(server) == 0 {
		servers = resolver.systemServers()
	}
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn(name), qType)
	msg.RecursionDesired = true
	msg.SetEdns0(MaxDNSUDPPacketSize, false)

	var lastErr error
	for _, server := range servers {
		response, err := resolver.exchangeWithRetries(ctx, msg, server)
		if err != nil {
			dlog.Debugf("[%s] %s %s: %v", server, name, recordType, err)
			lastErr = err
			continue
		}
		switch response.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, newQueryError(KindNotFound, name, recordType, nil)
		default:
			lastErr = fmt.Errorf("Server [%s] answered %s", server, dns.RcodeToString[response.Rcode])
			continue
		}
		answers := answersOfType(response.Answer, qType)
		if len(answers) == 0 {
			return nil, newQueryError(KindNoAnswer, name, recordType, nil)
		}
		return answers, nil
	}
	if lastErr == nil {
		lastErr = errors.New("No resolver available")
	}
	return nil, newQueryError(KindTransport, name, recordType, lastErr)
}

func answersOfType(rrs []dns.RR, qType uint16) []dns.RR {
	answers := make([]dns.RR, 0, len(rrs))
	for _, rr := range rrs {
		if rr.Header().Rrtype == qType && rr.Header().Class == dns.ClassINET {
			answers = append(answers, rr)
		}
	}
	return answers
}

// resolveServerAddress turns "host", "host:port", "ip" or "ip:port" into an
// "ip:port" dial address, looking up the first A record of host names.
func resolveServerAddress(ctx context.Context, resolver Resolver, server string) (string, error) {
	host, port := ExtractHostAndPort(server, DefaultDNSPort)
	if ip := ParseIP(host); ip != nil {
		return JoinHostPort(ip.String(), port), nil
	}
	answers, err := resolver.Resolve(ctx, host, dns.TypeA, "")
	if err != nil {
		return "", err
	}
	for _, answer := range answers {
		if a, ok := answer.(*dns.A); ok {
			return JoinHostPort(a.A.String(), port), nil
		}
	}
	return "", newQueryError(KindNoAnswer, host, "A", nil)
}
