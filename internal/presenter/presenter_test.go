// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/i18n"
	"github.com/wneessen/routebridge/internal/routing"
)

var (
	testStart = geo.New(52.5, 13.4)
	testEnd   = geo.New(52.502, 13.404)
)

func testSuccess() routing.Result {
	return routing.NewSuccess(
		[]geo.Coordinate{testStart, geo.New(52.5, 13.404), testEnd},
		[]string{"Head east on Main Street", "Turn left onto Station Road", "You have arrived at your destination"},
	)
}

func TestNew(t *testing.T) {
	t.Run("new presenter with default template succeeds", func(t *testing.T) {
		p, err := New(i18n.Default(), "")
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		if p.text == nil {
			t.Fatal("expected text template to be parsed")
		}
	})
	t.Run("new presenter with broken template fails", func(t *testing.T) {
		_, err := New(i18n.Default(), "{{ .Start }")
		if err == nil {
			t.Error("expected presenter creation to fail")
		}
	})
}

func TestPresenter_BuildView(t *testing.T) {
	p, err := New(i18n.Default(), "")
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	t.Run("success view numbers the steps", func(t *testing.T) {
		view := p.BuildView(testStart, testEnd, testSuccess())
		if !view.Success {
			t.Fatal("expected success view")
		}
		if len(view.Steps) != 3 {
			t.Fatalf("expected 3 steps, got %d", len(view.Steps))
		}
		if view.Steps[2].Number != 3 {
			t.Errorf("expected last step to be number 3, got %d", view.Steps[2].Number)
		}
		if len(view.Path) != 3 {
			t.Errorf("expected 3 path points, got %d", len(view.Path))
		}
	})
	t.Run("failure view carries the reason", func(t *testing.T) {
		view := p.BuildView(testStart, testEnd, routing.NewFailure(routing.ReasonNoRoute, "islands"))
		if view.Success {
			t.Fatal("expected failure view")
		}
		if view.Reason != "no route" {
			t.Errorf("expected reason %q, got %q", "no route", view.Reason)
		}
		if view.Error != "no route: islands" {
			t.Errorf("expected error %q, got %q", "no route: islands", view.Error)
		}
	})
}

func TestPresenter_WriteText(t *testing.T) {
	t.Run("success is rendered with numbered steps", func(t *testing.T) {
		p, err := New(i18n.Default(), "")
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		if err = p.Render(buf, FormatText, testStart, testEnd, testSuccess()); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		want := "Route 52.5,13.4 -> 52.502,13.404\n" +
			"--------------------------------\n" +
			"Distance: 0 km\n" +
			"Duration: 0 minutes\n" +
			" 1. Head east on Main Street\n" +
			" 2. Turn left onto Station Road\n" +
			" 3. You have arrived at your destination\n"
		if buf.String() != want {
			t.Errorf("unexpected text output:\nwant: %q\ngot:  %q", want, buf.String())
		}
	})
	t.Run("failure is rendered with the error", func(t *testing.T) {
		p, err := New(i18n.Default(), "")
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		result := routing.NewFailure(routing.ReasonUnroutablePoint, "start 10,10")
		if err = p.Render(buf, FormatText, testStart, testEnd, result); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		if buf.String() != "No route found: unroutable point: start 10,10\n" {
			t.Errorf("unexpected text output: %q", buf.String())
		}
	})
	t.Run("labels are localized", func(t *testing.T) {
		loc, err := i18n.New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		p, err := New(loc, `{{loc "Distance"}}/{{loc "Duration"}}/{{loc "unknown"}}`)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		if err = p.WriteText(buf, RouteView{}); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		if buf.String() != "Entfernung/Dauer/unknown" {
			t.Errorf("expected localized labels, got %q", buf.String())
		}
	})
	t.Run("distance and duration follow the language", func(t *testing.T) {
		loc, err := i18n.New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		p, err := New(loc, `{{km .Distance}} km/{{duration .Duration}}`)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		view := RouteView{Distance: 12345678, Duration: time.Hour + 5*time.Minute + 12*time.Second}
		if err = p.WriteText(buf, view); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		if buf.String() != "12.345,68 km/1 Stunde, 5 Minuten" {
			t.Errorf("expected german distance and duration, got %q", buf.String())
		}
	})
	t.Run("distance and duration in english", func(t *testing.T) {
		p, err := New(i18n.Default(), `{{km .Distance}} km/{{duration .Duration}}`)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		if err = p.WriteText(buf, RouteView{Distance: 493.7, Duration: 5*time.Minute + 12*time.Second}); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		if buf.String() != "0.49 km/5 minutes" {
			t.Errorf("expected english distance and duration, got %q", buf.String())
		}
	})
	t.Run("rule matches the display width of wide text", func(t *testing.T) {
		if got := rule("東京"); got != "----" {
			t.Errorf("expected a rule of width 4, got %q", got)
		}
		if got := rule("Straße"); got != "------" {
			t.Errorf("expected a rule of width 6, got %q", got)
		}
	})
	t.Run("long instructions are clipped", func(t *testing.T) {
		p, err := New(i18n.Default(), `{{clip .Error}}`, WithMaxWidth(10))
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		if err = p.WriteText(buf, RouteView{Error: "Turn left onto Station Road"}); err != nil {
			t.Fatalf("failed to render text: %s", err)
		}
		if buf.String() != "Turn left…" {
			t.Errorf("expected clipped text, got %q", buf.String())
		}
	})
}

func TestPresenter_WriteJSON(t *testing.T) {
	p, err := New(i18n.Default(), "")
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	t.Run("success is written as GeoJSON feature", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		if err = p.Render(buf, FormatJSON, testStart, testEnd, testSuccess()); err != nil {
			t.Fatalf("failed to render JSON: %s", err)
		}
		got, err := geojson.UnmarshalFeature(buf.Bytes())
		if err != nil {
			t.Fatalf("failed to decode JSON output: %s", err)
		}
		line, ok := got.Geometry.(orb.LineString)
		if !ok {
			t.Fatalf("expected a LineString geometry, got %T", got.Geometry)
		}
		if len(line) != 3 {
			t.Fatalf("expected 3 positions, got %d", len(line))
		}
		if line[0] != (orb.Point{13.4, 52.5}) {
			t.Errorf("expected lon,lat order, got %v", line[0])
		}
		instructions, ok := got.Properties["instructions"].([]any)
		if !ok || len(instructions) != 3 {
			t.Errorf("expected 3 instructions, got %v", got.Properties["instructions"])
		}
	})
	t.Run("failure is written with its reason", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		result := routing.NewFailure(routing.ReasonNoRoute, "")
		if err = p.Render(buf, FormatJSON, testStart, testEnd, result); err != nil {
			t.Fatalf("failed to render JSON: %s", err)
		}
		if !strings.Contains(buf.String(), `"reason": "no route"`) {
			t.Errorf("expected JSON to contain the reason, got %s", buf.String())
		}
	})
	t.Run("unknown formats fail", func(t *testing.T) {
		if err = p.Render(bytes.NewBuffer(nil), "xml", testStart, testEnd, testSuccess()); err == nil {
			t.Error("expected rendering to fail")
		}
	})
}

func TestPresenter_RenderPlaces(t *testing.T) {
	places := []engine.Place{
		{ID: 1, Name: "Central Station", City: "Synthtown", Category: "station", Location: testEnd},
		{ID: 3, Name: "Island Lighthouse", Location: geo.New(52.6, 13.502)},
	}
	p, err := New(i18n.Default(), "")
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	t.Run("places are listed one per line", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		if err = p.RenderPlaces(buf, FormatText, places); err != nil {
			t.Fatalf("failed to render places: %s", err)
		}
		want := "52.502,13.404\tCentral Station, Synthtown (station)\n52.6,13.502\tIsland Lighthouse\n"
		if buf.String() != want {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})
	t.Run("empty results are localized", func(t *testing.T) {
		loc, err := i18n.New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		de, err := New(loc, "")
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		buf := bytes.NewBuffer(nil)
		if err = de.RenderPlaces(buf, FormatText, nil); err != nil {
			t.Fatalf("failed to render places: %s", err)
		}
		if buf.String() != "Keine Orte gefunden\n" {
			t.Errorf("expected localized empty result, got %q", buf.String())
		}
	})
	t.Run("places are written as GeoJSON points", func(t *testing.T) {
		buf := bytes.NewBuffer(nil)
		if err = p.RenderPlaces(buf, FormatJSON, places); err != nil {
			t.Fatalf("failed to render places: %s", err)
		}
		got, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
		if err != nil {
			t.Fatalf("failed to decode JSON output: %s", err)
		}
		if len(got.Features) != 2 {
			t.Fatalf("expected 2 features, got %d", len(got.Features))
		}
		if point, ok := got.Features[0].Geometry.(orb.Point); !ok || point != (orb.Point{13.404, 52.502}) {
			t.Errorf("expected point at 13.404,52.502, got %v", got.Features[0].Geometry)
		}
		if got.Features[0].Properties.MustString("name", "") != "Central Station" {
			t.Errorf("expected name property, got %v", got.Features[0].Properties)
		}
		if _, ok := got.Features[1].Properties["city"]; ok {
			t.Error("expected empty city to be omitted")
		}
	})
	t.Run("unknown formats fail", func(t *testing.T) {
		if err = p.RenderPlaces(bytes.NewBuffer(nil), "xml", places); err == nil {
			t.Error("expected rendering to fail")
		}
	})
}
