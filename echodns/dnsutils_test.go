package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/powerman/check"
)

func toServerAddr(s *dns.Server) (string, error) {
	var h, p string
	var err error
	if strings.HasPrefix(s.Net, "udp") {
		h, p, err = net.SplitHostPort(s.PacketConn.LocalAddr().String())
	} else {
		h, p, err = net.SplitHostPort(s.Listener.Addr().String())
	}
	if err != nil {
		return "", err
	}
	if net.ParseIP(h).To4() == nil {
		return "[::1]:" + p, nil
	}
	return "127.0.0.1:" + p, nil
}

func startServer(t *check.C, proto string, h dns.Handler) (*dns.Server, error) {
	waitLock := sync.Mutex{}
	server := &dns.Server{Addr: "127.0.0.1:0", Net: proto, ReadTimeout: time.Hour, WriteTimeout: time.Hour, NotifyStartedFunc: waitLock.Unlock, Handler: h}
	waitLock.Lock()

	go func() {
		err := server.ListenAndServe()
		t.Nil(err)
	}()
	waitLock.Lock()
	return server, nil
}

func mustRR(s string) dns.RR {
	rr, err := dns.NewRR(s)
	if err != nil {
		panic(err)
	}
	return rr
}

// zoneRecords maps "name TYPE" to the answers served for it. Names that
// appear nowhere are NXDOMAIN.
type zoneRecords map[string][]string

func (records zoneRecords) hasName(name string) bool {
	for key := range records {
		if strings.HasPrefix(key, name+" ") {
			return true
		}
	}
	return false
}

// queryCounter records the questions a fake server received, in order.
type queryCounter struct {
	sync.Mutex
	questions []string
}

func (counter *queryCounter) add(q dns.Question) {
	counter.Lock()
	counter.questions = append(counter.questions, dns.TypeToString[q.Qtype])
	counter.Unlock()
}

func (counter *queryCounter) list() []string {
	counter.Lock()
	defer counter.Unlock()
	return append([]string(nil), counter.questions...)
}

func FakeAuthority(records zoneRecords, counter *queryCounter) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		q := req.Question[0]
		if counter != nil {
			counter.add(q)
		}
		name := strings.ToLower(q.Name)
		if !records.hasName(name) {
			m.SetRcode(req, dns.RcodeNameError)
			w.WriteMsg(m)
			return
		}
		for _, rr := range records[name+" "+dns.TypeToString[q.Qtype]] {
			m.Answer = append(m.Answer, mustRR(rr))
		}
		w.WriteMsg(m)
	}
}

func FakeRefuser(w dns.ResponseWriter, req *dns.Msg) {
	m := new(dns.Msg)
	m.SetRcode(req, dns.RcodeRefused)
	w.WriteMsg(m)
}

// FakeTransfer answers AXFR queries with the given records in one message.
func FakeTransfer(records []string) dns.HandlerFunc {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		for _, rr := range records {
			m.Answer = append(m.Answer, mustRR(rr))
		}
		w.WriteMsg(m)
	}
}

type fakeResolver struct {
	answers map[string][]dns.RR
	errs    map[string]error
	calls   []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{answers: make(map[string][]dns.RR), errs: make(map[string]error)}
}

func fakeKey(name string, qType uint16) string {
	return fmt.Sprintf("%s %s", fqdn(strings.ToLower(name)), dns.TypeToString[qType])
}

func (resolver *fakeResolver) Resolve(ctx context.Context, name string, qType uint16, server string) ([]dns.RR, error) {
	key := fakeKey(name, qType)
	resolver.calls = append(resolver.calls, dns.TypeToString[qType])
	if err, ok := resolver.errs[key]; ok {
		return nil, err
	}
	if answers, ok := resolver.answers[key]; ok {
		return answers, nil
	}
	return nil, newQueryError(KindNoAnswer, name, dns.TypeToString[qType], nil)
}

func testSettings() Settings {
	return Settings{
		QueryTimeout:     2 * time.Second,
		DoHTimeout:       2 * time.Second,
		AXFRTimeout:      2 * time.Second,
		KeepAlive:        time.Second,
		FallbackResolver: "127.0.0.1:53",
		ResolvConf:       "/nonexistent/resolv.conf",
		DoHURL:           DefaultDoHURL,
		RecordTypes:      DefaultRecordTypes(),
		UserAgent:        "echodns-test",
		NoColor:          true,
	}
}

func newTestQuerier(settings Settings, resolver Resolver) (*Querier, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewQuerier(out, settings, resolver, NewXTransport(settings), nil), out
}

func countLines(output string, substr string) int {
	n := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}
