package view

import (
	"log/slog"
	"sync"

	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/scroll"
)

type NarrativeSurface struct {
	Label    string `json:"label"`
	HTML     string `json:"html"`
	Revision uint64 `json:"revision"`
}

// NarrativeBinder shows the markdown body of the active section.
type NarrativeBinder struct {
	md *NarrativeConverter

	mu       sync.RWMutex
	surface  NarrativeSurface
	rendered map[string]string
}

func NewNarrativeBinder(regions dataset.RegionLookup) *NarrativeBinder {
	return &NarrativeBinder{md: NewNarrativeConverter(regions), rendered: map[string]string{}}
}

func (n *NarrativeBinder) ShowPeriod(pos scroll.Position, section *config.SectionDefn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	html := ""
	if section != nil {
		var ok bool
		html, ok = n.rendered[section.Label]
		if !ok {
			var err error
			if html, err = n.md.ConvertToHTML(section.Body); err != nil {
				slog.Warn("failed to convert markdown to html", "section", section.Label, "err", err)
			}
			n.rendered[section.Label] = html
		}
	}
	n.surface = NarrativeSurface{Label: pos.Label, HTML: html, Revision: n.surface.Revision + 1}
}

func (n *NarrativeBinder) Snapshot() NarrativeSurface {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.surface
}
