package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountProcesses_ExcludesWorkers(t *testing.T) {
	ids := []string{
		"orderProcess", "orderProcess", "orderProcess",
		"orderProcess_worker", "orderProcess_worker", "orderProcess_worker",
		"orderProcess_worker", "orderProcess_worker",
	}

	counters := CountProcesses(ids, DefaultWorkerMarker)

	assert.Equal(t, DayCounters{"orderProcess": 3}, counters)
	assert.Equal(t, ProcessTotals{"orderProcess": 3}, PeriodData{"2022-12-18": counters}.Totals())
}

func TestCountProcesses_EmptyMarkerCountsAll(t *testing.T) {
	counters := CountProcesses([]string{"a", "a_worker"}, "")
	assert.Equal(t, DayCounters{"a": 1, "a_worker": 1}, counters)
}

func TestCountProcesses_SkipsEmptyIDs(t *testing.T) {
	counters := CountProcesses([]string{"", "a", ""}, DefaultWorkerMarker)
	assert.Equal(t, DayCounters{"a": 1}, counters)

	counters = CountProcesses([]string{""}, "")
	assert.Empty(t, counters)
}

func TestCountProcesses_NoHits(t *testing.T) {
	counters := CountProcesses(nil, DefaultWorkerMarker)
	assert.NotNil(t, counters)
	assert.Empty(t, counters)
}

func TestPeriodData_Totals(t *testing.T) {
	data := PeriodData{
		"2022-12-12": {"orderProcess": 3, "invoice": 1},
		"2022-12-13": {},
		"2022-12-14": {"invoice": 4, "permit": 2},
	}

	assert.Equal(t, ProcessTotals{"orderProcess": 3, "invoice": 5, "permit": 2}, data.Totals())
	assert.Equal(t, []int{4, 0, 6}, data.DailySums([]string{"2022-12-12", "2022-12-13", "2022-12-14"}))
}

func TestPeriodData_TotalsMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	processes := []string{"orderProcess", "invoice", "permit", "complaint", "parking"}

	for round := 0; round < 50; round++ {
		data := make(PeriodData)
		reference := make(map[string]int)
		var ids []string
		days := 1 + rng.Intn(31)
		for day := 1; day <= days; day++ {
			ids = ids[:0]
			for n := rng.Intn(40); n > 0; n-- {
				p := processes[rng.Intn(len(processes))]
				if rng.Intn(4) == 0 {
					p += DefaultWorkerMarker
				} else {
					reference[p]++
				}
				ids = append(ids, p)
			}
			data[fmt.Sprintf("2022-12-%02d", day)] = CountProcesses(ids, DefaultWorkerMarker)
		}

		totals := data.Totals()
		for p, want := range reference {
			assert.Equal(t, want, totals[p], "process %s in round %d", p, round)
		}
		assert.Len(t, totals, len(reference))
		for p := range totals {
			assert.NotContains(t, p, DefaultWorkerMarker)
		}
	}
}

func TestPeriodData_TotalsOrderIndependent(t *testing.T) {
	days := []DayCounters{
		{"a": 1, "b": 2},
		{"b": 3},
		{"c": 7, "a": 4},
	}
	forward := PeriodData{"d1": days[0], "d2": days[1], "d3": days[2]}
	backward := PeriodData{"d1": days[2], "d2": days[1], "d3": days[0]}

	assert.Equal(t, forward.Totals(), backward.Totals())
}

func TestProcessTotals_Sorted(t *testing.T) {
	totals := ProcessTotals{"b": 2, "a": 2, "c": 9, "d": 1}

	assert.Equal(t, []ProcessCount{
		{Process: "c", Count: 9},
		{Process: "a", Count: 2},
		{Process: "b", Count: 2},
		{Process: "d", Count: 1},
	}, totals.Sorted())
	assert.Equal(t, 14, totals.Sum())
}

func TestProcessTotals_Clone(t *testing.T) {
	totals := ProcessTotals{"a": 1}
	c := totals.Clone()
	c["a"] = 5

	assert.Equal(t, 1, totals["a"])
}
