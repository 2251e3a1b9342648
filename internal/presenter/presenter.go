// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter renders routing results for humans and machines.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/vorlif/humanize"
	"github.com/vorlif/spreak"
	"github.com/vorlif/spreak/localize"

	"github.com/wneessen/routebridge/internal/engine"
	"github.com/wneessen/routebridge/internal/geo"
	"github.com/wneessen/routebridge/internal/i18n"
	"github.com/wneessen/routebridge/internal/routing"
)

// Format selects the output representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// DefaultTextTemplate is used for FormatText output if no other template is given.
const DefaultTextTemplate = `{{if .Success -}}
{{loc "Route"}} {{.Start}} -> {{.End}}
{{rule (printf "%s %s -> %s" (loc "Route") .Start .End)}}
{{loc "Distance"}}: {{km .Distance}} km
{{loc "Duration"}}: {{duration .Duration}}
{{range .Steps}}{{printf "%2d" .Number}}. {{clip .Text}}
{{end}}{{else -}}
{{loc "No route found"}}: {{.Error}}
{{end}}`

var i18nVars = map[string]localize.MsgID{
	"Route":           "Route",
	"Distance":        "Distance",
	"Duration":        "Duration",
	"No route found":  "No route found",
	"No places found": "No places found",
}

// StepView is a single numbered instruction.
type StepView struct {
	Number int
	Text   string
}

// RouteView is the template context for a rendered result.
type RouteView struct {
	Start    geo.Coordinate
	End      geo.Coordinate
	Success  bool
	Reason   string
	Error    string
	Distance float64
	Duration time.Duration
	Path     []geo.Coordinate
	Steps    []StepView
}

// Presenter renders routing results.
type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
	text      *template.Template
	maxWidth  int
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithMaxWidth clips instruction texts to the given display width. Zero disables clipping.
func WithMaxWidth(width int) Option {
	return func(p *Presenter) {
		p.maxWidth = width
	}
}

// New parses the text template and returns a Presenter. An empty template selects
// DefaultTextTemplate.
func New(loc *spreak.Localizer, textTpl string, opts ...Option) (*Presenter, error) {
	p := &Presenter{localizer: loc, humanizer: i18n.NewHumanizer(loc)}
	for _, opt := range opts {
		opt(p)
	}
	if textTpl == "" {
		textTpl = DefaultTextTemplate
	}
	tpl, err := template.New("text").Funcs(p.templateFuncMap()).Parse(textTpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	p.text = tpl
	return p, nil
}

// BuildView turns a result into its template context.
func (p *Presenter) BuildView(start, end geo.Coordinate, result routing.Result) RouteView {
	view := RouteView{
		Start:   start,
		End:     end,
		Success: result.IsSuccess(),
		Path:    result.Coordinates(),
	}
	if !view.Success {
		view.Reason = result.Reason().String()
		view.Error = result.ErrorMessage()
		return view
	}
	for i, text := range result.Instructions() {
		view.Steps = append(view.Steps, StepView{Number: i + 1, Text: text})
	}
	if success, ok := result.(*routing.Success); ok {
		view.Distance = success.Distance()
		view.Duration = success.Duration().Round(time.Second)
	}
	return view
}

// Render writes the result in the given format to w.
func (p *Presenter) Render(w io.Writer, format Format, start, end geo.Coordinate, result routing.Result) error {
	switch format {
	case FormatJSON:
		return p.WriteJSON(w, start, end, result)
	case FormatText, "":
		return p.WriteText(w, p.BuildView(start, end, result))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteText renders view with the text template.
func (p *Presenter) WriteText(w io.Writer, view RouteView) error {
	if err := p.text.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render text template: %w", err)
	}
	return nil
}

// WriteJSON writes a successful result as a GeoJSON feature with a LineString geometry.
// Failures are written in their own JSON representation.
func (p *Presenter) WriteJSON(w io.Writer, start, end geo.Coordinate, result routing.Result) error {
	var payload any = result
	if result.IsSuccess() {
		payload = newFeature(p.BuildView(start, end, result), result.Instructions())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// RenderPlaces writes search results to w. Text output lists one place per line, JSON output
// is a GeoJSON feature collection of points.
func (p *Presenter) RenderPlaces(w io.Writer, format Format, places []engine.Place) error {
	switch format {
	case FormatJSON:
		collection := geojson.NewFeatureCollection()
		for _, place := range places {
			feature := geojson.NewFeature(place.Location.Point())
			feature.ID = place.ID
			feature.Properties["name"] = place.Name
			if place.City != "" {
				feature.Properties["city"] = place.City
			}
			if place.Category != "" {
				feature.Properties["category"] = place.Category
			}
			collection.Append(feature)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(collection); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	case FormatText, "":
		if len(places) == 0 {
			_, err := fmt.Fprintln(w, p.loc("No places found"))
			return err
		}
		for _, place := range places {
			label := place.Name
			if place.City != "" {
				label += ", " + place.City
			}
			if place.Category != "" {
				label += " (" + place.Category + ")"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", place.Location, p.clip(label)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func newFeature(view RouteView, instructions []string) *geojson.Feature {
	line := make(orb.LineString, 0, len(view.Path))
	for _, c := range view.Path {
		line = append(line, c.Point())
	}
	feature := geojson.NewFeature(line)
	feature.Properties["start"] = view.Start
	feature.Properties["end"] = view.End
	feature.Properties["instructions"] = instructions
	feature.Properties["distance_m"] = geo.Truncate(view.Distance, 1)
	feature.Properties["duration_s"] = view.Duration.Seconds()
	return feature
}

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"loc":      p.loc,
		"clip":     p.clip,
		"rule":     rule,
		"km":       p.km,
		"duration": p.duration,
		"lc":       strings.ToLower,
		"uc":       strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	if raw, ok := i18nVars[val]; ok && p.localizer != nil {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) clip(val string) string {
	if p.maxWidth <= 0 {
		return val
	}
	return runewidth.Truncate(val, p.maxWidth, "…")
}

// rule returns a horizontal line as wide as val is on a terminal.
func rule(val string) string {
	return strings.Repeat("-", runewidth.StringWidth(val))
}

// km formats meters as kilometers with up to two decimals in the number format of the
// presenter language.
func (p *Presenter) km(meters float64) string {
	return p.humanizer.Intcomma(math.Round(meters/10) / 100)
}

// duration formats d in minutes and larger units, e.g. "1 hour, 5 minutes".
func (p *Presenter) duration(d time.Duration) string {
	ref := time.Unix(0, 0).UTC()
	return p.humanizer.TimeSinceFrom(ref, ref.Add(d))
}
