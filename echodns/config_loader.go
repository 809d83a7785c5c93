package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

func ConfigLoad(app *App, args []string) error {
	flagSet := flag.NewFlagSet("echodns", flag.ContinueOnError)
	flagSet.SetOutput(app.stderr)
	flags := newConfigFlags(flagSet)
	// flag stops at the first positional argument: take it as a domain and
	// resume parsing after it.
	args = expandDomainArgs(args)
	for {
		if err := flagSet.Parse(args); err != nil {
			return err
		}
		args = flagSet.Args()
		if len(args) == 0 {
			break
		}
		if strings.HasPrefix(args[0], "-") {
			flagSet.Usage()
			return fmt.Errorf("Unexpected argument [%s]", args[0])
		}
		flags.Domains.Set(args[0])
		args = args[1:]
	}
	app.flags = flags
	if *flags.Version {
		return nil
	}

	config := newConfig()
	if len(*flags.ConfigFile) > 0 {
		md, err := toml.DecodeFile(*flags.ConfigFile, &config)
		if err != nil {
			return fmt.Errorf("Unable to load the configuration file [%s]: %w", *flags.ConfigFile, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("Unsupported key in configuration file: [%s]", undecoded[0])
		}
	}
	configureLogging(&config)

	settings, err := buildSettings(&config, flags)
	if err != nil {
		return err
	}
	app.settings = settings
	if len(*flags.Domains) == 0 {
		flagSet.Usage()
		return errors.New("At least one domain must be given with -d")
	}

	xTransport := NewXTransport(settings)
	if err := xTransport.rebuildTransport(); err != nil {
		return err
	}
	queryLog, err := NewQueryLog(config.QueryLog)
	if err != nil {
		return err
	}
	app.querier = NewQuerier(app.stdout, settings, NewResolver(settings), xTransport, queryLog)
	return nil
}

// configureLogging - Configure logging based on the configuration
func configureLogging(config *Config) {
	if config.LogLevel >= 0 && config.LogLevel < int(dlog.SeverityLast) {
		dlog.SetLogLevel(dlog.Severity(config.LogLevel))
	}
	if config.UseSyslog {
		dlog.UseSyslog(true)
	} else if config.LogFile != nil {
		dlog.UseLogFile(*config.LogFile)
	}
}

func buildSettings(config *Config, flags *ConfigFlags) (Settings, error) {
	settings := Settings{
		QueryTimeout: time.Duration(config.Timeout) * time.Millisecond,
		DoHTimeout:   time.Duration(config.DoHTimeout) * time.Millisecond,
		AXFRTimeout:  time.Duration(config.AXFRTimeout) * time.Second,
		KeepAlive:    time.Duration(config.KeepAlive) * time.Second,
		Retries:      config.Retries,
		ResolvConf:   ResolvConfPath,
		DoHURL:       config.DoHURL,
		TLSRootCA:    config.TLSRootCA,
		UserAgent:    config.UserAgent,
		NoColor:      config.NoColor || *flags.NoColor,
		ShowStats:    *flags.Stats,
		ZoneDir:      config.ZoneDir,
	}
	if settings.QueryTimeout <= 0 || settings.DoHTimeout <= 0 || settings.AXFRTimeout <= 0 {
		return settings, errors.New("Timeouts must be positive")
	}
	if settings.Retries < 0 {
		return settings, errors.New("The number of retries cannot be negative")
	}
	if len(*flags.SaveZone) > 0 {
		settings.ZoneDir = *flags.SaveZone
	}

	host, port := ExtractHostAndPort(config.FallbackResolver, DefaultDNSPort)
	if ParseIP(host) == nil {
		return settings, fmt.Errorf("Fallback resolver [%s] must be an IP address", config.FallbackResolver)
	}
	settings.FallbackResolver = JoinHostPort(host, port)

	if len(config.RecordTypes) == 0 {
		return settings, errors.New("record_types cannot be empty")
	}
	for _, recordType := range config.RecordTypes {
		recordType = strings.ToUpper(recordType)
		if _, ok := dns.StringToType[recordType]; !ok {
			return settings, fmt.Errorf("Unsupported record type in record_types: [%s]", recordType)
		}
		settings.RecordTypes = append(settings.RecordTypes, recordType)
	}

	if len(config.HTTPProxyURL) > 0 {
		httpProxyURL, err := url.Parse(config.HTTPProxyURL)
		if err != nil {
			return settings, fmt.Errorf("Unable to parse the HTTP proxy URL [%v]", config.HTTPProxyURL)
		}
		settings.HTTPProxyFunction = http.ProxyURL(httpProxyURL)
	}
	if len(config.Proxy) > 0 {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return settings, fmt.Errorf("Unable to parse the proxy URL [%v]", config.Proxy)
		}
		settings.ProxyURL = proxyURL
	}
	return settings, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "echodns %s\n", AppVersion)
}
