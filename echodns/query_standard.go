package main

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

func (querier *Querier) QueryStandard(ctx context.Context, domain string, recordType string, server string) []RecordResult {
	formatter := querier.formatter
	var serverAddr string
	if len(server) > 0 {
		addr, err := resolveServerAddress(ctx, querier.resolver, server)
		if err != nil {
			formatter.Errorf("Unable to resolve DNS server %s : %v", server, Cause(err))
			return nil
		}
		serverAddr = addr
	}

	results := make([]RecordResult, 0)
	for _, recordType := range recordTypesFor(querier.settings, recordType) {
		start := time.Now()
		answers, err := querier.lookup(ctx, domain, recordType, serverAddr)
		querier.recordOutcome(pathStandard, domain, recordType, err, len(answers), start)
		if err != nil {
			switch KindOf(err) {
			case KindNoAnswer:
				formatter.Warnf("No %s record found for %s", recordType, domain)
				continue
			case KindNotFound:
				formatter.Errorf("No such domain: %s", domain)
				return nil
			default:
				formatter.Errorf("Error querying %s : %v", recordType, Cause(err))
				continue
			}
		}
		for _, answer := range answers {
			results = append(results, RecordResult{RecordType: recordType, Value: rdataText(answer)})
		}
	}
	formatter.Table(results)
	return results
}

func (querier *Querier) lookup(ctx context.Context, domain string, recordType string, server string) ([]dns.RR, error) {
	qType, ok := dns.StringToType[recordType]
	if !ok {
		return nil, newQueryError(KindUnclassified, domain, recordType, fmt.Errorf("Unsupported record type [%s]", recordType))
	}
	return querier.resolver.Resolve(ctx, domain, qType, server)
}
