// Package catalog holds the read-only game content: the figures an artist can
// place on the canvas and the default subject list.
package catalog

import (
	"strings"

	"imagine/domain"
)

var figures = []domain.Figure{
	{Source: "swimming.svg", Aliases: []string{"swimming", "water", "pool"}},
	{Source: "sailboat.svg", Aliases: []string{"sailboat", "boat", "ship"}},
	{Source: "circle.svg", Aliases: []string{"circle", "round"}},
	{Source: "no-parking.svg", Aliases: []string{"no", "stop", "not"}},
	{Source: "lightning.svg", Aliases: []string{"lightning", "thunder"}},
	{Source: "badge.svg", Aliases: []string{"badge", "police", "arrest", "crime"}},
	{Source: "camera.svg", Aliases: []string{"camera", "photo", "photograph", "photographer", "picture"}},
	{Source: "computer.svg", Aliases: []string{"computer", "pc", "online", "screen"}},
	{Source: "dynamite.svg", Aliases: []string{"dynamite", "explosive", "boom"}},
	{Source: "flashlight.svg", Aliases: []string{"flashlight", "torch", "light"}},
	{Source: "gun.svg", Aliases: []string{"gun", "pistol", "weapon", "firearm", "bullet"}},
	{Source: "key.svg", Aliases: []string{"key", "lock", "padlock", "open", "door"}},
	{Source: "magnifying-glass.svg", Aliases: []string{"magnifyingglass", "zoom"}},
	{Source: "padlock.svg", Aliases: []string{"padlock", "lock", "key"}},
	{Source: "pipe.svg", Aliases: []string{"pipe", "smoke", "tobacco", "detective"}},
	{Source: "safe-box.svg", Aliases: []string{"safebox", "box", "money", "bank", "storage"}},
}

// Figures returns a copy of the whole figure catalog.
func Figures() []domain.Figure {
	out := make([]domain.Figure, len(figures))
	copy(out, figures)
	return out
}

// Search returns the figures having an alias that starts with q, ignoring case
// and surrounding spaces. An empty query matches everything.
func Search(q string) []domain.Figure {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return Figures()
	}

	out := []domain.Figure{}
	for _, f := range figures {
		for _, alias := range f.Aliases {
			if strings.HasPrefix(alias, q) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Lookup finds a figure by its source.
func Lookup(src string) (domain.Figure, bool) {
	for _, f := range figures {
		if f.Source == src {
			return f, true
		}
	}
	return domain.Figure{}, false
}
