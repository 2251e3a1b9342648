// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wneessen/routebridge/internal/geo"
)

const (
	// DatasetFormat identifies routebridge graph datasets.
	DatasetFormat = "routebridge-graph"

	// DatasetVersion is the dataset version this engine is able to load.
	DatasetVersion = 1

	// MinSpeed is the lowest way speed in km/h a dataset may define.
	MinSpeed = 1.0
)

// ErrInvalidDataset is returned when a dataset file does not describe a usable graph for this
// engine version.
var ErrInvalidDataset = errors.New("invalid dataset")

var gzipMagic = []byte{0x1f, 0x8b}

// Dataset is the on-disk representation of a pre-built road network.
type Dataset struct {
	Format  string        `json:"format"`
	Version int           `json:"version"`
	Name    string        `json:"name"`
	Nodes   []DatasetNode  `json:"nodes"`
	Ways    []DatasetWay   `json:"ways"`
	Places  []DatasetPlace `json:"places,omitempty"`
}

// DatasetNode is a routable point of the road network.
type DatasetNode struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DatasetWay is a named road connecting an ordered list of nodes. MaxSpeed is given in km/h,
// zero selects the engine default. Other speeds must be at least MinSpeed.
type DatasetWay struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Nodes    []int64 `json:"nodes"`
	Oneway   bool    `json:"oneway"`
	MaxSpeed float64 `json:"max_speed"`
}

// DatasetPlace is a named point of interest that can be searched for as a route destination.
type DatasetPlace struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// ReadDatasetFile opens and decodes the dataset at path.
func ReadDatasetFile(path string) (ds *Dataset, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close dataset: %w", closeErr))
		}
	}()
	return ReadDataset(file)
}

// ReadDataset decodes and validates a dataset from r. Gzip compressed input is detected
// automatically.
func ReadDataset(r io.Reader) (*Dataset, error) {
	buf := bufio.NewReader(r)
	var reader io.Reader = buf
	if magic, err := buf.Peek(len(gzipMagic)); err == nil && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read gzip header: %w", ErrInvalidDataset, err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	ds := new(Dataset)
	if err := json.NewDecoder(reader).Decode(ds); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JSON: %w", ErrInvalidDataset, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the dataset for structural consistency.
func (d *Dataset) Validate() error {
	if d.Format != DatasetFormat {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidDataset, d.Format)
	}
	if d.Version != DatasetVersion {
		return fmt.Errorf("%w: version %d is not supported, expected %d", ErrInvalidDataset, d.Version,
			DatasetVersion)
	}
	if len(d.Ways) == 0 {
		return fmt.Errorf("%w: no ways defined", ErrInvalidDataset)
	}

	known := make(map[int64]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if _, ok := known[n.ID]; ok {
			return fmt.Errorf("%w: duplicate node id %d", ErrInvalidDataset, n.ID)
		}
		if err := geo.New(n.Lat, n.Lon).Validate(); err != nil {
			return fmt.Errorf("%w: node %d: %w", ErrInvalidDataset, n.ID, err)
		}
		known[n.ID] = struct{}{}
	}
	for _, w := range d.Ways {
		if len(w.Nodes) < 2 {
			return fmt.Errorf("%w: way %d references less than 2 nodes", ErrInvalidDataset, w.ID)
		}
		if w.MaxSpeed != 0 && w.MaxSpeed < MinSpeed {
			return fmt.Errorf("%w: way %d has speed %v, minimum is %v", ErrInvalidDataset, w.ID, w.MaxSpeed,
				MinSpeed)
		}
		for _, id := range w.Nodes {
			if _, ok := known[id]; !ok {
				return fmt.Errorf("%w: way %d references unknown node %d", ErrInvalidDataset, w.ID, id)
			}
		}
	}
	for _, p := range d.Places {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: place %d has no name", ErrInvalidDataset, p.ID)
		}
		if err := geo.New(p.Lat, p.Lon).Validate(); err != nil {
			return fmt.Errorf("%w: place %d: %w", ErrInvalidDataset, p.ID, err)
		}
	}
	return nil
}
