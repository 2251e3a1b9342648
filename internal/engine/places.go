// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package engine

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/wneessen/routebridge/internal/geo"
)

// MaxSearchResults caps the number of places returned by a single search.
const MaxSearchResults = 50

// Place is a named point of interest of the dataset.
type Place struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	City     string         `json:"city,omitempty"`
	Category string         `json:"category,omitempty"`
	Location geo.Coordinate `json:"location"`
}

// placeEntry is a place with its folded search keys.
type placeEntry struct {
	Place
	name string
	city string
}

func buildPlaces(ds *Dataset) []placeEntry {
	places := make([]placeEntry, 0, len(ds.Places))
	for _, p := range ds.Places {
		places = append(places, placeEntry{
			Place: Place{
				ID:       p.ID,
				Name:     p.Name,
				City:     p.City,
				Category: p.Category,
				Location: geo.New(p.Lat, p.Lon),
			},
			name: foldKey(p.Name),
			city: foldKey(p.City),
		})
	}
	return places
}

// Search returns the places whose name or city contains query. Matching ignores case and
// diacritics. Name matches are listed before city matches, each in dataset order. A limit
// outside of 1..MaxSearchResults selects MaxSearchResults.
func (e *Engine) Search(query string, limit int) []Place {
	g := e.graph.Load()
	if g == nil {
		return nil
	}
	key := foldKey(strings.TrimSpace(query))
	if key == "" {
		return nil
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	var byName, byCity []Place
	for _, p := range g.places {
		switch {
		case strings.Contains(p.name, key):
			byName = append(byName, p.Place)
		case strings.Contains(p.city, key):
			byCity = append(byCity, p.Place)
		}
		if len(byName) >= limit {
			break
		}
	}
	results := slices.Concat(byName, byCity)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// foldKey lowercases s and strips diacritics, so that "Café" and "CAFE" compare equal.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}
