// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package routing

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/wneessen/routebridge/internal/geo"
)

// Reason classifies why a route query failed.
type Reason int

const (
	// ReasonNone is reported by successful results.
	ReasonNone Reason = iota
	// ReasonInvalidInput indicates a coordinate outside of the valid range.
	ReasonInvalidInput
	// ReasonUnroutablePoint indicates a coordinate that could not be matched onto the road network.
	ReasonUnroutablePoint
	// ReasonNoRoute indicates that no connected path exists between the two points.
	ReasonNoRoute
	// ReasonInternal indicates an engine fault or a canceled query.
	ReasonInternal
)

var reasonNames = map[Reason]string{
	ReasonNone:            "",
	ReasonInvalidInput:    "invalid coordinate",
	ReasonUnroutablePoint: "unroutable point",
	ReasonNoRoute:         "no route",
	ReasonInternal:        "internal error",
}

// String returns the stable wording of the reason. Every failure message starts with it.
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return reasonNames[ReasonInternal]
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Result is the outcome of a route query. It is either a *Success or a *Failure; no other
// implementations exist. Accessors of the inactive variant return zero values.
type Result interface {
	IsSuccess() bool
	Coordinates() []geo.Coordinate
	Instructions() []string
	ErrorMessage() string
	Reason() Reason

	result()
}

// Success carries the path geometry and its turn instructions.
type Success struct {
	coordinates  []geo.Coordinate
	instructions []string
	distance     float64
	duration     time.Duration
}

// NewSuccess returns a successful result. The given slices are copied; nil slices become
// empty ones.
func NewSuccess(coordinates []geo.Coordinate, instructions []string) *Success {
	success := &Success{
		coordinates:  slices.Clone(coordinates),
		instructions: slices.Clone(instructions),
	}
	if success.coordinates == nil {
		success.coordinates = []geo.Coordinate{}
	}
	if success.instructions == nil {
		success.instructions = []string{}
	}
	return success
}

func (s *Success) IsSuccess() bool      { return true }
func (s *Success) ErrorMessage() string { return "" }
func (s *Success) Reason() Reason       { return ReasonNone }
func (s *Success) result()              {}

// Coordinates returns a copy of the ordered path geometry.
func (s *Success) Coordinates() []geo.Coordinate {
	return slices.Clone(s.coordinates)
}

// Instructions returns a copy of the ordered turn instructions.
func (s *Success) Instructions() []string {
	return slices.Clone(s.instructions)
}

// Distance returns the length of the path in meters, if known.
func (s *Success) Distance() float64 {
	return s.distance
}

// Duration returns the estimated travel time, if known.
func (s *Success) Duration() time.Duration {
	return s.duration
}

// MarshalJSON implements json.Marshaler.
func (s *Success) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status       string           `json:"status"`
		Coordinates  []geo.Coordinate `json:"coordinates"`
		Instructions []string         `json:"instructions"`
		Distance     float64          `json:"distance_m,omitempty"`
		Duration     float64          `json:"duration_s,omitempty"`
	}{
		Status:       "success",
		Coordinates:  s.coordinates,
		Instructions: s.instructions,
		Distance:     geo.Truncate(s.distance, 1),
		Duration:     geo.Truncate(s.duration.Seconds(), 1),
	})
}

// Failure describes why no path could be returned.
type Failure struct {
	reason  Reason
	message string
}

// NewFailure returns a failed result. The message is prefixed with the reason wording; an
// empty detail leaves the reason wording alone.
func NewFailure(reason Reason, detail string) *Failure {
	if reason == ReasonNone {
		reason = ReasonInternal
	}
	msg := reason.String()
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return &Failure{reason: reason, message: msg}
}

func (f *Failure) IsSuccess() bool               { return false }
func (f *Failure) Coordinates() []geo.Coordinate { return nil }
func (f *Failure) Instructions() []string        { return nil }
func (f *Failure) ErrorMessage() string          { return f.message }
func (f *Failure) Reason() Reason                { return f.reason }
func (f *Failure) result()                       {}

// MarshalJSON implements json.Marshaler.
func (f *Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status string `json:"status"`
		Reason Reason `json:"reason"`
		Error  string `json:"error"`
	}{
		Status: "failure",
		Reason: f.reason,
		Error:  f.message,
	})
}
