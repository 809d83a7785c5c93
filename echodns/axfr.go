package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dchest/safefile"
	"github.com/jedisct1/dlog"
	"github.com/miekg/dns"
)

// PerformAXFR transfers domain from nameserver and prints every record.
// The returned error has already been reported on the console.
func (querier *Querier) PerformAXFR(ctx context.Context, domain string, nameserver string) error {
	start := time.Now()
	zone, err := querier.performAXFR(ctx, domain, nameserver)
	count := 0
	if zone != nil {
		count = zone.Len()
	}
	querier.recordOutcome(pathAXFR, domain, "AXFR", err, count, start)
	if err != nil {
		querier.reportAXFRError(domain, nameserver, err)
	}
	return err
}

func (querier *Querier) performAXFR(ctx context.Context, domain string, nameserver string) (*Zone, error) {
	formatter := querier.formatter
	formatter.Infof("[*] Resolving nameserver %s ...", nameserver)
	nsAddr, err := resolveServerAddress(ctx, querier.resolver, nameserver)
	if err != nil {
		return nil, newQueryError(KindNameserverUnresolved, domain, "AXFR", Cause(err))
	}
	nsIP, _ := ExtractHostAndPort(nsAddr, DefaultDNSPort)
	formatter.Typef("[*] Using IP %s for AXFR\n", nsIP)

	formatter.Infof("[*] Attempting AXFR for %s from %s ...\n", domain, nsIP)
	zone, err := transferZone(ctx, domain, nsAddr, querier.settings.AXFRTimeout)
	if err != nil {
		return nil, err
	}

	formatter.Successf("AXFR results for %s from %s (%s):\n", domain, nameserver, nsIP)
	records := zone.Records()
	recordCount := formatter.Zone(records)
	formatter.Infof("\n[+] Total records retrieved: %d\n", recordCount)
	formatter.Successf("[✓] AXFR completed successfully!")

	if len(querier.settings.ZoneDir) > 0 {
		fileName, err := saveZone(querier.settings.ZoneDir, zone)
		if err != nil {
			formatter.Errorf("[!] Unable to save the zone: %v", err)
		} else {
			formatter.Infof("[+] Zone saved to %s", fileName)
		}
	}
	return zone, nil
}

func transferZone(ctx context.Context, domain string, server string, timeout time.Duration) (*Zone, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transfer := &dns.Transfer{DialTimeout: timeout, ReadTimeout: timeout, WriteTimeout: timeout}
	msg := new(dns.Msg)
	msg.SetAxfr(fqdn(domain))
	envelopes, err := transfer.In(msg, server)
	if err != nil {
		return nil, classifyTransferError(domain, err, false)
	}

	zone := NewZone(domain)
	for {
		select {
		case <-ctx.Done():
			if transfer.Conn != nil {
				transfer.Close()
			}
			go drainEnvelopes(envelopes)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, newQueryError(KindTransferTimeout, domain, "AXFR", ctx.Err())
			}
			return nil, newQueryError(KindUnclassified, domain, "AXFR", ctx.Err())
		case envelope, ok := <-envelopes:
			if !ok {
				if zone.Len() == 0 {
					return nil, newQueryError(KindTransferRefused, domain, "AXFR", errors.New("Empty transfer"))
				}
				return zone, nil
			}
			if envelope.Error != nil {
				go drainEnvelopes(envelopes)
				return nil, classifyTransferError(domain, envelope.Error, zone.Len() > 0)
			}
			for _, rr := range envelope.RR {
				zone.Add(rr)
			}
		}
	}
}

func drainEnvelopes(envelopes chan *dns.Envelope) {
	for range envelopes {
	}
}

// classifyTransferError maps a transfer failure to its kind. A connection
// closed before any record is how most servers refuse a transfer.
func classifyTransferError(domain string, err error, started bool) *QueryError {
	var dnsErr *dns.Error
	if errors.As(err, &dnsErr) {
		return newQueryError(KindTransferRefused, domain, "AXFR", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newQueryError(KindTransferTimeout, domain, "AXFR", err)
	}
	if !started && errors.Is(err, io.EOF) {
		return newQueryError(KindTransferRefused, domain, "AXFR", err)
	}
	return newQueryError(KindUnclassified, domain, "AXFR", err)
}

func (querier *Querier) reportAXFRError(domain string, nameserver string, err error) {
	formatter := querier.formatter
	switch KindOf(err) {
	case KindTransferRefused:
		formatter.Errorf("[!] AXFR refused or not supported by %s", nameserver)
	case KindTransferTimeout:
		formatter.Errorf("[!] AXFR request to %s timed out", nameserver)
	case KindNameserverUnresolved:
		formatter.Errorf("[!] Unable to resolve nameserver %s: %v", nameserver, Cause(err))
	default:
		formatter.Errorf("[!] Error performing AXFR for %s from %s", domain, nameserver)
		cause := Cause(err)
		formatter.Printf("    → Error Type: %T\n", cause)
		formatter.Printf("    → Error Message: %v\n", cause)
		var queryErr *QueryError
		if errors.As(err, &queryErr) && queryErr.Err != nil {
			err = queryErr.Err
		}
		formatter.Printf("    → Stack trace:\n%+v\n", err)
		dlog.Debugf("AXFR %s from %s: %+v", domain, nameserver, err)
	}
}

func saveZone(dir string, zone *Zone) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	fileName := filepath.Join(dir, StripTrailingDot(zone.Origin)+".zone")
	f, err := safefile.Create(fileName, 0644)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := zone.WriteTo(f); err != nil {
		return "", err
	}
	if err := f.Commit(); err != nil {
		return "", err
	}
	return fileName, nil
}
