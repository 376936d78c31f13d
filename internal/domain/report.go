package domain

import (
	"sort"
	"strings"
)

// DefaultWorkerMarker identifies technical job-worker processes that are
// not business processes and are never counted.
const DefaultWorkerMarker = "_worker"

// DayCounters maps a process identifier to the number of instances created
// on one calendar day. It is built once and not modified afterwards.
type DayCounters map[string]int

// PeriodData maps an ISO date (2006-01-02) to the counters of that day.
type PeriodData map[string]DayCounters

// ProcessTotals maps a process identifier to its summed count over a period.
type ProcessTotals map[string]int

// ProcessCount is one row of a rendered report
type ProcessCount struct {
	Process string
	Count   int
}

// ReportContext is the complete input to report rendering.
type ReportContext struct {
	Header string
	Totals ProcessTotals
}

// CountProcesses builds the counters for one day from the process
// identifiers of the matched records. Empty identifiers and identifiers
// containing marker are skipped; an empty marker disables the exclusion.
func CountProcesses(processIDs []string, marker string) DayCounters {
	counters := make(DayCounters)
	for _, id := range processIDs {
		if id == "" || (marker != "" && strings.Contains(id, marker)) {
			continue
		}
		counters[id]++
	}
	return counters
}

// Totals sums every process identifier over all days of the period.
func (p PeriodData) Totals() ProcessTotals {
	totals := make(ProcessTotals)
	for _, counters := range p {
		for process, cnt := range counters {
			totals[process] += cnt
		}
	}
	return totals
}

// DailySums returns the total number of counted instances per date, in the
// order of dates.
func (p PeriodData) DailySums(dates []string) []int {
	sums := make([]int, 0, len(dates))
	for _, day := range dates {
		sum := 0
		for _, cnt := range p[day] {
			sum += cnt
		}
		sums = append(sums, sum)
	}
	return sums
}

// Sorted returns the totals ordered by descending count, ties broken by
// process identifier.
func (t ProcessTotals) Sorted() []ProcessCount {
	rows := make([]ProcessCount, 0, len(t))
	for process, cnt := range t {
		rows = append(rows, ProcessCount{Process: process, Count: cnt})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Process < rows[j].Process
	})
	return rows
}

// Sum returns the grand total over all processes.
func (t ProcessTotals) Sum() int {
	sum := 0
	for _, cnt := range t {
		sum += cnt
	}
	return sum
}

// Clone returns an independent copy of the totals.
func (t ProcessTotals) Clone() ProcessTotals {
	c := make(ProcessTotals, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}
