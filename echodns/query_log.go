package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// QueryLog appends one line per lookup outcome. A nil *QueryLog discards everything.
type QueryLog struct {
	writer io.Writer
	format string
	now    func() time.Time
}

func NewQueryLog(config QueryLogConfig) (*QueryLog, error) {
	if len(config.File) == 0 {
		return nil, nil
	}
	if config.Format != "tsv" && config.Format != "ltsv" {
		return nil, fmt.Errorf("Unsupported query log format: [%s]", config.Format)
	}
	writer, err := Logger(config.MaxSize, config.MaxAge, config.MaxBackups, config.File)
	if err != nil {
		return nil, err
	}
	return &QueryLog{writer: writer, format: config.Format, now: time.Now}, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}

func (queryLog *QueryLog) Log(path, domain, recordType string, err error, answers int, rtt time.Duration) {
	if queryLog == nil {
		return
	}
	qName := StringQuote(StripTrailingDot(domain))
	outcome := outcomeOf(err)
	rttMs := strconv.FormatInt(rtt.Milliseconds(), 10)
	var sb strings.Builder
	if queryLog.format == "tsv" {
		now := queryLog.now()
		year, month, day := now.Date()
		hour, minute, second := now.Clock()
		fmt.Fprintf(&sb, "[%d-%02d-%02d %02d:%02d:%02d]", year, int(month), day, hour, minute, second)
		for _, field := range []string{path, qName, recordType, outcome, strconv.Itoa(answers), rttMs + "ms"} {
			sb.WriteByte('\t')
			sb.WriteString(field)
		}
	} else {
		fmt.Fprintf(&sb, "time:%d\tpath:%s\thost:%s\ttype:%s\toutcome:%s\tanswers:%d\trtt_ms:%s",
			queryLog.now().Unix(), path, qName, recordType, outcome, answers, rttMs)
	}
	sb.WriteByte('\n')
	io.WriteString(queryLog.writer, sb.String())
}
