package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/powerman/check"
)

func TestMain(m *testing.M) { check.TestMain(m) }

func loadApp(args ...string) (*App, error) {
	app := &App{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	return app, ConfigLoad(app, args)
}

func TestExpandDomainArgs(tt *testing.T) {
	t := check.T(tt)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"-d", "a.com"}, []string{"-d", "a.com"}},
		{[]string{"-d", "a.com", "b.com", "c.com", "-t", "MX"}, []string{"-d", "a.com", "-d", "b.com", "-d", "c.com", "-t", "MX"}},
		{[]string{"-t", "A", "--domain", "a.com", "b.com"}, []string{"-t", "A", "--domain", "a.com", "--domain", "b.com"}},
		{[]string{"-s", "1.1.1.1", "a.com"}, []string{"-s", "1.1.1.1", "a.com"}},
		{[]string{"-d"}, []string{"-d"}},
		{[]string{"-d=a.com", "b.com", "--doh"}, []string{"-d=a.com", "-d", "b.com", "--doh"}},
		{[]string{"--domain=a.com", "b.com", "c.com"}, []string{"--domain=a.com", "--domain", "b.com", "--domain", "c.com"}},
		{[]string{"-d", "a.com", "--", "b.com"}, []string{"-d", "a.com", "--", "b.com"}},
	}
	for _, test := range tests {
		t.DeepEqual(expandDomainArgs(test.args), test.want, test.args)
	}
}

func TestConfigLoadRequests(tt *testing.T) {
	t := check.T(tt)
	app, err := loadApp("-d", "a.com", "b.com", "-t", "mx", "-s", "192.0.2.1", "c.com")
	t.Nil(err)

	requests := app.Requests()
	t.Len(requests, 3)
	for i, domain := range []string{"a.com", "b.com", "c.com"} {
		t.DeepEqual(requests[i], Request{Domain: domain, RecordType: "mx", ResolverAddress: "192.0.2.1"})
	}
	t.Equal(app.settings.QueryTimeout, DefaultQueryTimeout)
	t.Equal(app.settings.AXFRTimeout, DefaultAXFRTimeout)
	t.Equal(app.settings.FallbackResolver, DefaultFallbackAddr)
	t.DeepEqual(app.settings.RecordTypes, DefaultRecordTypes())
	t.NotNil(app.querier)
}

func TestConfigLoadPositionalDomains(tt *testing.T) {
	t := check.T(tt)
	app, err := loadApp("example.com", "-t", "A")
	t.Nil(err)
	t.DeepEqual(app.Requests(), []Request{{Domain: "example.com", RecordType: "A"}})

	app, err = loadApp("--domain=a.com", "b.com", "--doh")
	t.Nil(err)
	requests := app.Requests()
	t.Len(requests, 2)
	for i, domain := range []string{"a.com", "b.com"} {
		t.Equal(requests[i].Domain, domain)
		t.True(requests[i].UseDoH)
	}

	app, err = loadApp("a.com", "-axfr", "b.com", "-s", "192.0.2.1")
	t.Nil(err)
	requests = app.Requests()
	t.Len(requests, 2)
	t.Equal(requests[1].Domain, "b.com")
	t.True(requests[1].UseAXFR)
	t.Equal(requests[1].ResolverAddress, "192.0.2.1")

	_, err = loadApp("-d", "a.com", "--", "-t")
	t.Match(fmt.Sprint(err), `Unexpected argument \[-t\]`)
}

func TestConfigLoadNoDomain(tt *testing.T) {
	t := check.T(tt)
	app, err := loadApp("-doh")
	t.Match(fmt.Sprint(err), "At least one domain")
	t.Contains(app.stderr.(*bytes.Buffer).String(), "-baseurl")
}

func TestConfigLoadVersion(tt *testing.T) {
	t := check.T(tt)
	app, err := loadApp("-version")
	t.Nil(err)
	t.True(*app.flags.Version)
	printVersion(app.stdout)
	t.Equal(app.stdout.(*bytes.Buffer).String(), "echodns "+AppVersion+"\n")
}

func TestConfigLoadFile(tt *testing.T) {
	t := check.T(tt)
	dir := t.TempDir()
	fileName := filepath.Join(dir, "echodns.toml")
	t.Nil(os.WriteFile(fileName, []byte(`
timeout_ms = 1500
axfr_timeout = 3
retries = 2
fallback_resolver = "192.0.2.53"
record_types = ["a", "MX"]
zone_dir = "`+filepath.Join(dir, "zones")+`"

[query_log]
file = "`+filepath.Join(dir, "query.log")+`"
format = "ltsv"
`), 0644))

	app, err := loadApp("-config", fileName, "-d", "example.com", "-save-zone", filepath.Join(dir, "other"))
	t.Nil(err)
	settings := app.settings
	t.Equal(settings.QueryTimeout, 1500*time.Millisecond)
	t.Equal(settings.AXFRTimeout, 3*time.Second)
	t.Equal(settings.Retries, 2)
	t.Equal(settings.FallbackResolver, "192.0.2.53:53")
	t.DeepEqual(settings.RecordTypes, []string{"A", "MX"})
	t.Equal(settings.ZoneDir, filepath.Join(dir, "other"))
	t.NotNil(app.querier.queryLog)
}

func TestConfigLoadInvalidFile(tt *testing.T) {
	t := check.T(tt)
	dir := t.TempDir()
	tests := []struct {
		content string
		want    string
	}{
		{`unknown_key = 1`, "Unsupported key in configuration file: \\[unknown_key\\]"},
		{`timeout_ms = 0`, "Timeouts must be positive"},
		{`retries = -1`, "retries cannot be negative"},
		{`fallback_resolver = "dns.example"`, "must be an IP address"},
		{`record_types = ["A", "BOGUS"]`, "Unsupported record type in record_types: \\[BOGUS\\]"},
		{`record_types = []`, "record_types cannot be empty"},
		{"[query_log]\nfile = \"q.log\"\nformat = \"json\"", "Unsupported query log format"},
		{`timeout_ms = "fast"`, "Unable to load the configuration file"},
	}
	for i, test := range tests {
		fileName := filepath.Join(dir, "config"+string(rune('a'+i))+".toml")
		t.Nil(os.WriteFile(fileName, []byte(test.content), 0644))
		_, err := loadApp("-config", fileName, "-d", "example.com")
		t.Match(fmt.Sprint(err), test.want, test.content)
	}
}

func TestDispatchAXFRWithoutServer(tt *testing.T) {
	t := check.T(tt)
	resolver := newFakeResolver()
	querier, out := newTestQuerier(testSettings(), resolver)

	querier.Dispatch(context.Background(), Request{Domain: "example.com", UseAXFR: true, UseDoH: true})

	t.Equal(out.String(), "Nameserver must be specified for AXFR using -s option\n")
	t.Len(resolver.calls, 0)
}

func TestDispatchStandard(tt *testing.T) {
	t := check.T(tt)
	resolver := newFakeResolver()
	querier, out := newTestQuerier(testSettings(), resolver)

	querier.Dispatch(context.Background(), Request{Domain: "example.com", RecordType: "NS"})

	t.DeepEqual(resolver.calls, []string{"NS"})
	t.Contains(out.String(), "No NS record found for example.com")
}

func TestAppRunStopsWhenInterrupted(tt *testing.T) {
	t := check.T(tt)
	resolver := newFakeResolver()
	querier, out := newTestQuerier(testSettings(), resolver)
	domains := domainList{"a.com", "b.com"}
	recordType, server, flagFalse, baseURL := "A", "", false, ""
	app := &App{
		stdout:   out,
		settings: querier.settings,
		querier:  querier,
		flags: &ConfigFlags{
			Domains: &domains, RecordType: &recordType, Server: &server,
			DoH: &flagFalse, AXFR: &flagFalse, BaseURL: &baseURL,
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	app.Run(ctx)
	t.Len(resolver.calls, 0)

	app.settings.ShowStats = true
	app.Run(context.Background())
	t.DeepEqual(resolver.calls, []string{"A", "A"})
	t.Contains(out.String(), "standard   2 ")
}
