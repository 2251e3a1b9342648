// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wneessen/routebridge/internal/geo"
)

// DefaultSheet is the name of the result sheet.
const DefaultSheet = "Routes"

// Input columns: A id, B start lat, C start lon, D end lat, E end lon.
const inputColumns = 5

var resultHeader = []interface{}{
	"ID", "Start Lat", "Start Lon", "End Lat", "End Lon",
	"Status", "Reason", "Error", "Distance (m)", "Duration (s)", "Points", "Instructions",
}

// ReadJobs reads the jobs from the given sheet of the workbook at path. An empty sheet name
// selects the first sheet. The first row is treated as header.
func ReadJobs(path, sheet string) (jobs []Job, err error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close workbook: %w", closeErr))
		}
	}()

	if sheet == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	for i, row := range rows {
		if i == 0 || isEmpty(row) {
			continue
		}
		jobs = append(jobs, parseJob(i+1, row))
	}
	return jobs, nil
}

// WriteResults writes rows into a new workbook at path using a stream writer.
func WriteResults(path, sheet string, rows []Row) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	index, err := file.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}
	sw, err := file.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	if err = sw.SetRow("A1", resultHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		status := "failure"
		if r.Success {
			status = "success"
		}
		values := []interface{}{
			r.ID, r.Start.Lat, r.Start.Lon, r.End.Lat, r.End.Lon,
			status, r.Reason, r.Error, r.Distance, r.Duration, r.Points, r.Instructions,
		}
		if err = sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err = sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream writer: %w", err)
	}

	file.SetActiveSheet(index)
	if sheet != "Sheet1" {
		file.DeleteSheet("Sheet1")
	}
	if err = file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func parseJob(rowNum int, row []string) Job {
	job := Job{Row: rowNum}
	if len(row) > 0 {
		job.ID = strings.TrimSpace(row[0])
	}
	if len(row) < inputColumns {
		job.ParseErr = fmt.Errorf("row %d has %d columns, expected %d", rowNum, len(row), inputColumns)
		return job
	}

	values := make([]float64, 0, 4)
	for col := 1; col < inputColumns; col++ {
		val, err := parseCoord(row[col])
		if err != nil {
			job.ParseErr = fmt.Errorf("row %d column %d: %w", rowNum, col+1, err)
			return job
		}
		values = append(values, val)
	}
	job.Start = geo.New(values[0], values[1])
	job.End = geo.New(values[2], values[3])
	return job
}

// parseCoord reads a decimal degree value. A decimal comma is accepted.
func parseCoord(val string) (float64, error) {
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, errors.New("empty coordinate value")
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate value %q", val)
	}
	return f, nil
}

func isEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
