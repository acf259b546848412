package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

var hitFields = []string{"name", "field", "count"}

var (
	byScore = []string{"-_score", "name"}
	byName  = []string{"field", "name"}
)

// buildMatchQuery splits text the same way names are split and matches
// any of the resulting words, so "performTextSearch" finds "text search".
func buildMatchQuery(text string) query.Query {
	q := bleve.NewMatchQuery(strings.Join(Terms(text), " "))
	q.SetField("terms")
	return q
}

// Search returns the event names best matching text, highest score first.
func (i *Indexer) Search(text string, limit int) ([]Hit, error) {
	return i.run(buildMatchQuery(text), limit, byScore)
}

// SearchByField performs a search scoped to one field ("command" or "eclipsecommand").
func (i *Indexer) SearchByField(text, field string, limit int) ([]Hit, error) {
	fieldQuery := bleve.NewTermQuery(field)
	fieldQuery.SetField("field")

	return i.run(bleve.NewConjunctionQuery(buildMatchQuery(text), fieldQuery), limit, byScore)
}

// All returns indexed event names (up to limit) ordered by field, then name.
// A non-empty field restricts the listing to that field.
func (i *Indexer) All(field string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 100
	}

	var q query.Query = bleve.NewMatchAllQuery()
	if field != "" {
		fieldQuery := bleve.NewTermQuery(field)
		fieldQuery.SetField("field")
		q = fieldQuery
	}
	return i.run(q, limit, byName)
}

func (i *Indexer) run(q query.Query, limit int, order []string) ([]Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = hitFields
	req.SortBy(order)

	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// convertBleveResults converts Bleve search results to Hits.
func convertBleveResults(results *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(results.Hits))

	for _, h := range results.Hits {
		name, _ := h.Fields["name"].(string)
		field, _ := h.Fields["field"].(string)
		count, _ := h.Fields["count"].(float64)

		hits = append(hits, Hit{
			Name:  name,
			Field: field,
			Count: int(count),
			Score: h.Score,
		})
	}

	return hits
}
