package main

import (
	"io"
	"time"
)

// Querier runs the three lookup paths for one invocation. It holds no state
// that outlives a query apart from the run statistics.
type Querier struct {
	settings   Settings
	formatter  *Formatter
	resolver   Resolver
	xTransport *XTransport
	queryLog   *QueryLog
	stats      *QueryStats
}

func NewQuerier(out io.Writer, settings Settings, resolver Resolver, xTransport *XTransport, queryLog *QueryLog) *Querier {
	return &Querier{
		settings:   settings,
		formatter:  NewFormatter(out, settings.NoColor),
		resolver:   resolver,
		xTransport: xTransport,
		queryLog:   queryLog,
		stats:      NewQueryStats(),
	}
}

func (querier *Querier) recordOutcome(path, domain, recordType string, err error, answers int, start time.Time) {
	rtt := time.Since(start)
	querier.stats.Record(path, err, rtt)
	querier.queryLog.Log(path, domain, recordType, err, answers, rtt)
}
