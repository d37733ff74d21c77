package facetcache

import (
	"encoding/json"
	"fmt"

	"github.com/propfind/searchcore/internal/domain/search/facet"
)

// countsDoc is the cached JSON form of facet counts.
type countsDoc struct {
	Dimensions map[string][]optionDoc `json:"dimensions"`
	SampleSize int                    `json:"sample_size"`
	Sampled    bool                   `json:"sampled,omitempty"`
}

type optionDoc struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

func marshalCounts(counts facet.Counts) ([]byte, error) {
	doc := countsDoc{
		Dimensions: make(map[string][]optionDoc, len(counts.ByDimension)),
		SampleSize: counts.SampleSize,
		Sampled:    counts.Sampled,
	}
	for dim, opts := range counts.ByDimension {
		docOpts := make([]optionDoc, len(opts))
		for i, opt := range opts {
			docOpts[i] = optionDoc{Value: opt.Value, Count: opt.Count}
		}
		doc.Dimensions[string(dim)] = docOpts
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal facet counts: %w", err)
	}
	return data, nil
}

func unmarshalCounts(data []byte) (facet.Counts, error) {
	var doc countsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return facet.Counts{}, fmt.Errorf("unmarshal facet counts: %w", err)
	}

	counts := facet.Counts{
		ByDimension: make(map[facet.Dimension][]facet.Option, len(doc.Dimensions)),
		SampleSize:  doc.SampleSize,
		Sampled:     doc.Sampled,
	}
	for name, docOpts := range doc.Dimensions {
		opts := make([]facet.Option, len(docOpts))
		for i, opt := range docOpts {
			opts[i] = facet.Option{Value: opt.Value, Count: opt.Count}
		}
		counts.ByDimension[facet.Dimension(name)] = opts
	}
	return counts, nil
}
