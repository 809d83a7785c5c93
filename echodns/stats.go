package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/jedisct1/dlog"
)

const (
	RTTEwmaDecay = 10.0

	pathStandard = "standard"
	pathDoH      = "doh"
	pathAXFR     = "axfr"
)

type pathStats struct {
	queries  int
	failures map[ErrorKind]int
	rtt      ewma.MovingAverage
}

type QueryStats struct {
	paths map[string]*pathStats
}

func NewQueryStats() *QueryStats {
	return &QueryStats{paths: make(map[string]*pathStats)}
}

func (stats *QueryStats) Record(path string, err error, rtt time.Duration) {
	if stats == nil {
		return
	}
	current, ok := stats.paths[path]
	if !ok {
		current = &pathStats{failures: make(map[ErrorKind]int), rtt: ewma.NewMovingAverage(RTTEwmaDecay)}
		stats.paths[path] = current
	}
	current.queries++
	ms := float64(rtt) / float64(time.Millisecond)
	if current.queries == 1 {
		current.rtt.Set(ms)
	} else {
		current.rtt.Add(ms)
	}
	if err != nil {
		current.failures[KindOf(err)]++
	}
}

func (stats *QueryStats) Queries(path string) int {
	if current, ok := stats.paths[path]; ok {
		return current.queries
	}
	return 0
}

func (stats *QueryStats) Failures(path string, kind ErrorKind) int {
	if current, ok := stats.paths[path]; ok {
		return current.failures[kind]
	}
	return 0
}

func (stats *QueryStats) sortedPaths() []string {
	paths := make([]string, 0, len(stats.paths))
	for path := range stats.paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (stats *QueryStats) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%-10s %-8s %-8s %s\n", "Path", "Queries", "Failed", "RTT (ewma)")
	for _, path := range stats.sortedPaths() {
		current := stats.paths[path]
		failed := 0
		for _, count := range current.failures {
			failed += count
		}
		fmt.Fprintf(w, "%-10s %-8d %-8d %.1fms\n", path, current.queries, failed, current.rtt.Value())
	}
}

func (stats *QueryStats) Log() {
	for _, path := range stats.sortedPaths() {
		current := stats.paths[path]
		dlog.Debugf("[%s] %d queries, failures: %v, rtt: %.1fms", path, current.queries, current.failures, current.rtt.Value())
	}
}
