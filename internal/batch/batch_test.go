// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/routing"
)

// stubRouter succeeds for every pair that starts north of the equator.
type stubRouter struct {
	calls atomic.Int32
}

func (s *stubRouter) RouteContext(_ context.Context, start, end geo.Coordinate) routing.Result {
	s.calls.Add(1)
	if start.Lat < 0 {
		return routing.NewFailure(routing.ReasonNoRoute, "south")
	}
	return routing.NewSuccess([]geo.Coordinate{start, end}, []string{"Head north", "Arrive"})
}

func TestRun(t *testing.T) {
	t.Run("results keep the job order", func(t *testing.T) {
		var jobs []Job
		for i := range 25 {
			lat := float64(i)
			if i%5 == 0 {
				lat = -lat - 1
			}
			jobs = append(jobs, Job{Row: i + 2, Start: geo.New(lat, 1), End: geo.New(1, 1)})
		}
		router := &stubRouter{}
		var lastProgress atomic.Int64
		rows := Run(t.Context(), router, jobs, 4, func(done, total int) {
			if total != len(jobs) {
				t.Errorf("expected total to be %d, got %d", len(jobs), total)
			}
			lastProgress.Store(int64(done))
		})
		if len(rows) != len(jobs) {
			t.Fatalf("expected %d rows, got %d", len(jobs), len(rows))
		}
		for i, row := range rows {
			if row.Row != jobs[i].Row {
				t.Errorf("expected row %d at index %d, got %d", jobs[i].Row, i, row.Row)
			}
			wantSuccess := i%5 != 0
			if row.Success != wantSuccess {
				t.Errorf("expected success of row %d to be %t", i, wantSuccess)
			}
		}
		if rows[0].Reason != "no route" {
			t.Errorf("expected reason %q, got %q", "no route", rows[0].Reason)
		}
		if rows[1].Points != 2 || rows[1].Instructions != "Head north\nArrive" {
			t.Errorf("unexpected success row: %+v", rows[1])
		}
		if router.calls.Load() != 25 {
			t.Errorf("expected 25 router calls, got %d", router.calls.Load())
		}
	})
	t.Run("rows with parse errors are not routed", func(t *testing.T) {
		router := &stubRouter{}
		rows := Run(t.Context(), router, []Job{{Row: 2, ParseErr: errors.New("bad row")}}, 0, nil)
		if router.calls.Load() != 0 {
			t.Errorf("expected no router calls, got %d", router.calls.Load())
		}
		if rows[0].Reason != "invalid coordinate" {
			t.Errorf("expected invalid coordinate, got %q", rows[0].Reason)
		}
	})
	t.Run("no jobs yield no rows", func(t *testing.T) {
		if rows := Run(t.Context(), &stubRouter{}, nil, 2, nil); len(rows) != 0 {
			t.Errorf("expected no rows, got %d", len(rows))
		}
	})
}

func TestReadJobs(t *testing.T) {
	path := writeInput(t, [][]interface{}{
		{"ID", "Start Lat", "Start Lon", "End Lat", "End Lon"},
		{"a", 52.5, 13.4, 52.502, 13.404},
		{"b", "52,5", "13,4", "52,502", "13,404"},
		{},
		{"c", "north", 13.4, 52.502, 13.404},
		{"d", 52.5},
	})

	t.Run("jobs are read from the first sheet", func(t *testing.T) {
		jobs, err := ReadJobs(path, "")
		if err != nil {
			t.Fatalf("failed to read jobs: %s", err)
		}
		if len(jobs) != 4 {
			t.Fatalf("expected 4 jobs, got %d", len(jobs))
		}
		if jobs[0].ID != "a" || jobs[0].Start != geo.New(52.5, 13.4) || jobs[0].End != geo.New(52.502, 13.404) {
			t.Errorf("unexpected first job: %+v", jobs[0])
		}
		if jobs[1].ParseErr != nil || jobs[1].Start != geo.New(52.5, 13.4) {
			t.Errorf("expected decimal commas to be accepted, got %+v", jobs[1])
		}
		if jobs[2].ParseErr == nil || !strings.Contains(jobs[2].ParseErr.Error(), "column 2") {
			t.Errorf("expected parse error in column 2, got %v", jobs[2].ParseErr)
		}
		if jobs[3].ParseErr == nil || jobs[3].Row != 6 {
			t.Errorf("expected short row 6 to fail, got %+v", jobs[3])
		}
	})
	t.Run("reading a missing sheet fails", func(t *testing.T) {
		if _, err := ReadJobs(path, "missing"); err == nil {
			t.Error("expected reading to fail")
		}
	})
	t.Run("reading a missing workbook fails", func(t *testing.T) {
		if _, err := ReadJobs(filepath.Join(t.TempDir(), "missing.xlsx"), ""); err == nil {
			t.Error("expected reading to fail")
		}
	})
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	rows := []Row{
		{Job: Job{ID: "a", Start: geo.New(1, 2), End: geo.New(3, 4)}, Success: true, Points: 2,
			Instructions: "Head north"},
		{Job: Job{ID: "b"}, Reason: "no route", Error: "no route: islands"},
	}
	if err := WriteResults(path, "", rows); err != nil {
		t.Fatalf("failed to write results: %s", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open results: %s", err)
	}
	t.Cleanup(func() { _ = file.Close() })

	if sheets := file.GetSheetList(); len(sheets) != 1 || sheets[0] != DefaultSheet {
		t.Errorf("expected only the %q sheet, got %v", DefaultSheet, sheets)
	}
	got, err := file.GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("failed to read results: %s", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected header and 2 rows, got %d rows", len(got))
	}
	if got[0][0] != "ID" || got[1][5] != "success" || got[2][5] != "failure" {
		t.Errorf("unexpected result rows: %v", got)
	}
	if got[2][7] != "no route: islands" {
		t.Errorf("expected error text in column H, got %q", got[2][7])
	}
}

func writeInput(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	file := excelize.NewFile()
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to address row: %s", err)
		}
		if err = file.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write input row: %s", err)
		}
	}
	path := filepath.Join(t.TempDir(), "pairs.xlsx")
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("failed to save input workbook: %s", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("failed to close input workbook: %s", err)
	}
	return path
}
