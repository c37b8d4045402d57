// Package search suggests dataset labels (states, sectors, subsectors and
// food types) for a partially typed query.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/asciifolding"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/wasteviz/wasteviz/app/dataset"
)

const (
	KindState     = "state"
	KindSector    = "sector"
	KindSubSector = "subsector"
	KindFoodType  = "food_type"
)

const DefaultLimit = 10

type Suggestion struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

type labelDoc struct {
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	LabelT string `json:"label_t"`
}

func (labelDoc) Type() string {
	return "label"
}

var _ mapping.Classifier = labelDoc{}

// LabelIndex is an in-memory bleve index of every distinct label.
type LabelIndex struct {
	idx bleve.Index
}

func indexMapping() (mapping.IndexMapping, error) {
	im := mapping.NewIndexMapping()
	err := im.AddCustomAnalyzer("folded", map[string]any{
		"type":          custom.Name,
		"char_filters":  []string{asciifolding.Name},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("defining analyzer: %w", err)
	}

	labelMapping := mapping.NewDocumentMapping()
	kind := mapping.NewKeywordFieldMapping()
	kind.Store = true
	labelMapping.AddFieldMappingsAt("kind", kind)

	label := mapping.NewKeywordFieldMapping()
	label.Store = true
	labelMapping.AddFieldMappingsAt("label", label)

	text := mapping.NewTextFieldMapping()
	text.Analyzer = "folded"
	text.Store = false
	labelMapping.AddFieldMappingsAt("label_t", text)

	im.AddDocumentMapping("label", labelMapping)
	im.DefaultMapping.Enabled = false
	return im, nil
}

// NewLabelIndex indexes the distinct labels of rows.
func NewLabelIndex(rows []dataset.WasteRecord) (*LabelIndex, error) {
	im, err := indexMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("creating label index: %w", err)
	}

	batch := idx.NewBatch()
	seen := map[string]struct{}{}
	add := func(kind, label string) error {
		if label == "" || label == dataset.NotApplicable {
			return nil
		}
		id := kind + ":" + label
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}
		return batch.Index(id, labelDoc{Kind: kind, Label: label, LabelT: label})
	}
	for i := range rows {
		r := &rows[i]
		for _, kv := range [][2]string{
			{KindState, r.State},
			{KindSector, r.Sector},
			{KindSubSector, r.SubSector},
			{KindFoodType, r.FoodType},
		} {
			if err := add(kv[0], kv[1]); err != nil {
				return nil, fmt.Errorf("indexing %q: %w", kv[1], err)
			}
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("writing label index: %w", err)
	}
	slog.Info("label index built", "labels", len(seen))
	return &LabelIndex{idx: idx}, nil
}

// Suggest returns labels having a word that starts with every word of
// partial, ordered by kind and label.
func (l *LabelIndex) Suggest(ctx context.Context, partial string, limit int) ([]Suggestion, error) {
	words := strings.Fields(strings.ToLower(partial))
	if len(words) == 0 {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var qs []query.Query
	for _, w := range words {
		q := bleve.NewPrefixQuery(w)
		q.SetField("label_t")
		qs = append(qs, q)
	}
	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"kind", "label"}
	req.SortBy([]string{"kind", "label"})

	res, err := l.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching labels: %w", err)
	}
	out := make([]Suggestion, 0, len(res.Hits))
	for _, hit := range res.Hits {
		kind, _ := hit.Fields["kind"].(string)
		label, _ := hit.Fields["label"].(string)
		out = append(out, Suggestion{Label: label, Kind: kind})
	}
	return out, nil
}

func (l *LabelIndex) Close() error {
	return l.idx.Close()
}
