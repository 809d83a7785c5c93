package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DoHResponse is the JSON format of the dns.google/Cloudflare resolve APIs.
type DoHResponse struct {
	Status   int         `json:"Status"`
	TC       bool        `json:"TC"`
	RD       bool        `json:"RD"`
	RA       bool        `json:"RA"`
	AD       bool        `json:"AD"`
	CD       bool        `json:"CD"`
	Question []DoHRecord `json:"Question"`
	Answer   []DoHRecord `json:"Answer"`
}

type DoHRecord struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

func (querier *Querier) QueryDoH(ctx context.Context, domain string, recordType string, baseURL string) []RecordResult {
	formatter := querier.formatter
	if len(baseURL) == 0 {
		baseURL = querier.settings.DoHURL
	}
	endpoint, err := ParseDoHEndpoint(baseURL)
	if err != nil {
		formatter.Errorf("Invalid DoH base URL %s : %v", baseURL, err)
		return nil
	}
	if len(endpoint.PinnedIP) > 0 {
		querier.xTransport.pinAddress(endpoint.URL.Hostname(), endpoint.PinnedIP)
	}

	results := make([]RecordResult, 0)
	for _, recordType := range recordTypesFor(querier.settings, recordType) {
		start := time.Now()
		answers, err := querier.dohLookup(ctx, endpoint, domain, recordType)
		querier.recordOutcome(pathDoH, domain, recordType, err, len(answers), start)
		if err != nil {
			if KindOf(err) == KindNoAnswer {
				formatter.Warnf("No %s record found for %s", recordType, domain)
			} else {
				formatter.Errorf("Error querying %s : %v", recordType, Cause(err))
			}
			continue
		}
		for _, answer := range answers {
			results = append(results, RecordResult{RecordType: recordType, Value: answer.Data})
		}
	}
	if len(results) > 0 {
		formatter.Printf("\n")
		formatter.Headingf("Results for %s records via DoH:", domain)
		formatter.Table(results)
	} else {
		formatter.Warnf("No records found for %s", domain)
	}
	return results
}

func (querier *Querier) dohLookup(ctx context.Context, endpoint DoHEndpoint, domain string, recordType string) ([]DoHRecord, error) {
	body, _, _, err := querier.xTransport.DoHJSONQuery(ctx, endpoint.QueryURL(domain, recordType), querier.settings.DoHTimeout)
	if err != nil {
		return nil, newQueryError(KindTransport, domain, recordType, err)
	}
	var response DoHResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, newQueryError(KindTransport, domain, recordType, fmt.Errorf("Invalid JSON response: %w", err))
	}
	if response.Answer == nil {
		return nil, newQueryError(KindNoAnswer, domain, recordType, nil)
	}
	return response.Answer, nil
}
