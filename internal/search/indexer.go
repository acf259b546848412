package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/khanglvm/forkfeat/internal/storage"
)

// Indexer manages the search index for event names.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
	indexPath  string
	logger     *zap.Logger
}

// NewIndexer creates a new search indexer with an in-memory Bleve index.
func NewIndexer(logger *zap.Logger) (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{bleveIndex: index, logger: orNop(logger)}, nil
}

// NewIndexerWithPath creates or reopens an indexer with persistent disk storage.
func NewIndexerWithPath(indexPath string, logger *zap.Logger) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.NewUsing(indexPath, buildIndexMapping(), scorch.Name, scorch.Name, nil)
	if err != nil {
		// If index exists, open it
		index, err = bleve.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open/create index: %w", err)
		}
	}

	return &Indexer{bleveIndex: index, indexPath: indexPath, logger: orNop(logger)}, nil
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	eventMapping := bleve.NewDocumentMapping()

	// Name and field: exact values, stored for retrieval and filtering.
	eventMapping.AddFieldMappingsAt("name", bleve.NewKeywordFieldMapping())
	eventMapping.AddFieldMappingsAt("field", bleve.NewKeywordFieldMapping())

	// Terms: the word split of the name, analyzed for matching.
	termsMapping := bleve.NewTextFieldMapping()
	termsMapping.Analyzer = "standard"
	termsMapping.Store = false
	eventMapping.AddFieldMappingsAt("terms", termsMapping)

	countMapping := bleve.NewNumericFieldMapping()
	countMapping.IncludeInAll = false
	eventMapping.AddFieldMappingsAt("count", countMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = eventMapping
	indexMapping.DefaultField = "terms"

	return indexMapping
}

func docID(field storage.Field, name string) string {
	return field.String() + "/" + name
}

// IndexEvents indexes event names, replacing entries with the same field and name.
func (i *Indexer) IndexEvents(events []storage.EventName) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()

	for _, ev := range events {
		if ev.Name == "" {
			continue
		}
		doc := map[string]interface{}{
			"name":  ev.Name,
			"field": ev.Field.String(),
			"terms": strings.Join(Terms(ev.Name), " "),
			"count": float64(ev.Count),
		}

		id := docID(ev.Field, ev.Name)
		if err := batch.Index(id, doc); err != nil {
			i.logger.Warn("failed to index event name", zap.String("id", id), zap.Error(err))
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index event names: %w", err)
	}

	return nil
}

// RemoveField removes every event name of one field (for reindexing).
func (i *Indexer) RemoveField(field storage.Field) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	q := bleve.NewTermQuery(field.String())
	q.SetField("field")

	total, err := i.bleveIndex.DocCount()
	if err != nil {
		return fmt.Errorf("failed to get doc count: %w", err)
	}
	req := bleve.NewSearchRequestOptions(q, int(total), 0, false)

	results, err := i.bleveIndex.Search(req)
	if err != nil {
		return fmt.Errorf("failed to find %s docs: %w", field, err)
	}

	batch := i.bleveIndex.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch delete: %w", err)
	}

	return nil
}

// Replace makes the index hold exactly events: names of every field they
// cover are removed first, so names gone from the store disappear.
func (i *Indexer) Replace(events []storage.EventName) error {
	for _, field := range []storage.Field{storage.FieldCommand, storage.FieldEclipseCommand} {
		if err := i.RemoveField(field); err != nil {
			return err
		}
	}
	return i.IndexEvents(events)
}

// Count returns the total number of indexed event names.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}

	return nil
}
