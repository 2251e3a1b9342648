// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package position determines the current device position from a gpsd daemon so it can be
// used as the origin of a route.
package position

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/routebridge/internal/geo"
)

const (
	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	truncPrecision        = 6   // ~0.1 m
)

const defaultTimeout = time.Second * 10

// ErrNoFix is returned if gpsd did not report a usable fix in time.
var ErrNoFix = errors.New("no GPS fix available")

// Fix represents a single position fix from gpsd.
type Fix struct {
	Coordinate geo.Coordinate
	Alt        float64
	Acc        float64
	Mode       gpsd.Mode
	At         time.Time
}

// Locator returns the current position.
type Locator interface {
	Locate(ctx context.Context) (Fix, error)
}

// GPSD locates the device via a gpsd daemon.
type GPSD struct {
	addr    string
	timeout time.Duration
}

// New returns a GPSD locator for the given host and port. A non-positive timeout selects
// the default of 10 seconds.
func New(host, port string, timeout time.Duration) *GPSD {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GPSD{
		addr:    net.JoinHostPort(host, port),
		timeout: timeout,
	}
}

// Addr returns the address of the gpsd daemon.
func (g *GPSD) Addr() string {
	return g.addr
}

// Locate connects to gpsd and waits for the first report with at least a 2D fix.
func (g *GPSD) Locate(ctx context.Context) (Fix, error) {
	session, err := gpsd.Dial(g.addr)
	if err != nil {
		return Fix{}, fmt.Errorf("failed to connect to gpsd at %q: %w", g.addr, err)
	}

	fixes := make(chan Fix, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok || tpv.Mode < gpsd.Mode2D {
			return
		}
		select {
		case fixes <- fixFromReport(tpv):
		default:
		}
	})

	// go-gpsd has no Close(); the watcher ends once the connection drops and needs a
	// receiver for its done signal.
	done := session.Watch()
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case fix := <-fixes:
		go func() { <-done }()
		return fix, nil
	case <-done:
		return Fix{}, fmt.Errorf("gpsd at %q closed the stream: %w", g.addr, ErrNoFix)
	case <-timer.C:
		go func() { <-done }()
		return Fix{}, fmt.Errorf("timed out after %s: %w", g.timeout, ErrNoFix)
	case <-ctx.Done():
		go func() { <-done }()
		return Fix{}, ctx.Err()
	}
}

func fixFromReport(tpv *gpsd.TPVReport) Fix {
	return Fix{
		Coordinate: geo.New(geo.Truncate(tpv.Lat, truncPrecision), geo.Truncate(tpv.Lon, truncPrecision)),
		Alt:        geo.Truncate(tpv.Alt, truncPrecision),
		Acc:        horizontalAccuracyMeters(tpv),
		Mode:       tpv.Mode,
		At:         time.Now(),
	}
}

func horizontalAccuracyMeters(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	if tpv.Mode >= gpsd.Mode3D {
		return fallbackAccuracy3DFix
	}
	return fallbackAccuracy2DFix
}
