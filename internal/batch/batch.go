// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package batch routes many origin/destination pairs read from an Excel workbook and writes
// the results into a new workbook.
package batch

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/routing"
)

// Router answers a single route query.
type Router interface {
	RouteContext(ctx context.Context, start, end geo.Coordinate) routing.Result
}

// Job is a single origin/destination pair from the input sheet. Row is the 1-based sheet
// row. ParseErr is set if the row could not be read as coordinates.
type Job struct {
	Row      int
	ID       string
	Start    geo.Coordinate
	End      geo.Coordinate
	ParseErr error
}

// Row is the outcome of a Job.
type Row struct {
	Job
	Success      bool
	Reason       string
	Error        string
	Distance     float64
	Duration     float64
	Points       int
	Instructions string
}

// ProgressFunc is called with the number of finished jobs.
type ProgressFunc func(done, total int)

// Run routes all jobs with the given number of workers. A non-positive number selects the
// number of CPUs. The returned rows are in job order.
func Run(ctx context.Context, router Router, jobs []Job, workers int, progress ProgressFunc) []Row {
	total := len(jobs)
	rows := make([]Row, total)
	if total == 0 {
		return rows
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunkSize := (total + workers - 1) / workers

	var wg sync.WaitGroup
	var finished atomic.Int64
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		wg.Go(func() {
			for idx := start; idx < end; idx++ {
				rows[idx] = runJob(ctx, router, jobs[idx])
				count := finished.Add(1)
				if progress != nil {
					progress(int(count), total)
				}
			}
		})
	}
	wg.Wait()
	return rows
}

func runJob(ctx context.Context, router Router, job Job) Row {
	row := Row{Job: job}
	var result routing.Result
	if job.ParseErr != nil {
		result = routing.NewFailure(routing.ReasonInvalidInput, job.ParseErr.Error())
	} else {
		result = router.RouteContext(ctx, job.Start, job.End)
	}

	row.Success = result.IsSuccess()
	if !row.Success {
		row.Reason = result.Reason().String()
		row.Error = result.ErrorMessage()
		return row
	}
	row.Points = len(result.Coordinates())
	row.Instructions = strings.Join(result.Instructions(), "\n")
	if success, ok := result.(*routing.Success); ok {
		row.Distance = geo.Truncate(success.Distance(), 1)
		row.Duration = geo.Truncate(success.Duration().Seconds(), 1)
	}
	return row
}
