package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jedisct1/dlog"
)

type Config struct {
	LogLevel         int            `toml:"log_level"`
	LogFile          *string        `toml:"log_file"`
	UseSyslog        bool           `toml:"use_syslog"`
	Timeout          int            `toml:"timeout_ms"`
	DoHTimeout       int            `toml:"doh_timeout_ms"`
	AXFRTimeout      int            `toml:"axfr_timeout"`
	KeepAlive        int            `toml:"keepalive"`
	Retries          int            `toml:"retries"`
	FallbackResolver string         `toml:"fallback_resolver"`
	DoHURL           string         `toml:"doh_url"`
	RecordTypes      []string       `toml:"record_types"`
	TLSRootCA        string         `toml:"tls_root_ca"`
	HTTPProxyURL     string         `toml:"http_proxy"`
	Proxy            string         `toml:"proxy"`
	UserAgent        string         `toml:"user_agent"`
	NoColor          bool           `toml:"no_color"`
	ZoneDir          string         `toml:"zone_dir"`
	QueryLog         QueryLogConfig `toml:"query_log"`
}

type QueryLogConfig struct {
	File       string `toml:"file"`
	Format     string `toml:"format"`
	MaxSize    int    `toml:"max_size"`
	MaxAge     int    `toml:"max_age"`
	MaxBackups int    `toml:"max_backups"`
}

func newConfig() Config {
	return Config{
		LogLevel:         int(dlog.SeverityWarning),
		Timeout:          int(DefaultQueryTimeout / time.Millisecond),
		DoHTimeout:       int(DefaultDoHTimeout / time.Millisecond),
		AXFRTimeout:      int(DefaultAXFRTimeout / time.Second),
		KeepAlive:        5,
		FallbackResolver: DefaultFallbackAddr,
		DoHURL:           DefaultDoHURL,
		RecordTypes:      DefaultRecordTypes(),
		UserAgent:        "echodns/" + AppVersion,
		QueryLog: QueryLogConfig{
			Format:     "tsv",
			MaxSize:    10,
			MaxAge:     7,
			MaxBackups: 1,
		},
	}
}

// Settings is the resolved, read-only view of the configuration and the
// command line that every component receives.
type Settings struct {
	QueryTimeout      time.Duration
	DoHTimeout        time.Duration
	AXFRTimeout       time.Duration
	KeepAlive         time.Duration
	Retries           int
	FallbackResolver  string
	ResolvConf        string
	DoHURL            string
	RecordTypes       []string
	TLSRootCA         string
	HTTPProxyFunction func(*http.Request) (*url.URL, error)
	ProxyURL          *url.URL
	UserAgent         string
	NoColor           bool
	ShowStats         bool
	ZoneDir           string
}

func (settings Settings) recordTypes() []string {
	recordTypes := make([]string, len(settings.RecordTypes))
	copy(recordTypes, settings.RecordTypes)
	return recordTypes
}

type ConfigFlags struct {
	Domains    *domainList
	RecordType *string
	DoH        *bool
	Server     *string
	AXFR       *bool
	BaseURL    *string
	ConfigFile *string
	NoColor    *bool
	Stats      *bool
	SaveZone   *string
	Version    *bool
}

type domainList []string

func (domains *domainList) String() string {
	return strings.Join(*domains, " ")
}

func (domains *domainList) Set(value string) error {
	for _, domain := range strings.Fields(value) {
		*domains = append(*domains, domain)
	}
	return nil
}

func newConfigFlags(flagSet *flag.FlagSet) *ConfigFlags {
	flags := &ConfigFlags{
		Domains:    &domainList{},
		RecordType: new(string),
		DoH:        new(bool),
		Server:     new(string),
		AXFR:       new(bool),
		BaseURL:    new(string),
	}
	for _, name := range []string{"d", "domain"} {
		flagSet.Var(flags.Domains, name, "Domain(s) to query")
	}
	for _, name := range []string{"t", "type"} {
		flagSet.StringVar(flags.RecordType, name, "", "Type of DNS record to query (e.g., A, MX, CNAME), default is all types")
	}
	for _, name := range []string{"s", "server"} {
		flagSet.StringVar(flags.Server, name, "", "Specify DNS server to use")
	}
	flagSet.BoolVar(flags.DoH, "doh", false, "Use DNS over HTTPS (DoH)")
	flagSet.BoolVar(flags.AXFR, "axfr", false, "Perform AXFR from specified nameserver")
	flagSet.StringVar(flags.BaseURL, "baseurl", "", fmt.Sprintf("Base URL or sdns:// stamp for the DoH server - e.g. %s", DefaultDoHURL))
	flags.ConfigFile = flagSet.String("config", "", "Path to an optional TOML configuration file")
	flags.NoColor = flagSet.Bool("no-color", false, "Disable colored output")
	flags.Stats = flagSet.Bool("stats", false, "Print query statistics after all domains are processed")
	flags.SaveZone = flagSet.String("save-zone", "", "Directory where zones retrieved with AXFR are saved")
	flags.Version = flagSet.Bool("version", false, "Print the version and exit")
	return flags
}

// expandDomainArgs rewrites "-d a b c" into "-d a -d b -d c" so that the
// standard flag parser accepts several space-separated domains. The
// "-d=a" and "--domain=a" forms are expanded the same way.
func expandDomainArgs(args []string) []string {
	expanded := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		expanded = append(expanded, arg)
		flagName, hasValue := domainFlag(arg)
		if len(flagName) == 0 {
			continue
		}
		if !hasValue {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				continue
			}
			i++
			expanded = append(expanded, args[i])
		}
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			expanded = append(expanded, flagName, args[i])
		}
	}
	return expanded
}

// domainFlag returns how arg spells the domain flag, if it does, and whether
// the value is attached with "=".
func domainFlag(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "---") {
		return "", false
	}
	flagName, hasValue := arg, false
	if idx := strings.Index(arg, "="); idx >= 0 {
		flagName, hasValue = arg[:idx], true
	}
	switch strings.TrimLeft(flagName, "-") {
	case "d", "domain":
		return flagName, hasValue
	}
	return "", false
}
