package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/shreyapuff/petalplanner/internal/domain"
	"github.com/shreyapuff/petalplanner/internal/logger"
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"text":       {"type": "text"},
			"mood":       {"type": "keyword"},
			"completed":  {"type": "boolean"},
			"created_at": {"type": "date"}
		}
	}
}`

type document struct {
	Text      string    `json:"text"`
	Mood      string    `json:"mood"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

func toDocument(t domain.Task) document {
	return document{Text: t.Text, Mood: string(t.Mood), Completed: t.Completed, CreatedAt: t.CreatedAt}
}

// Indexer mirrors task snapshots into an Elasticsearch index.
type Indexer struct {
	client *elastic.Client
	index  string

	mu      sync.Mutex
	indexed map[string]domain.Task
}

func NewIndexer(url, index string) (*Indexer, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Indexer{client: client, index: index, indexed: make(map[string]domain.Task)}, nil
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (ix *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := ix.client.IndexExists(ix.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", ix.index, err)
	}
	if exists {
		return nil
	}
	if _, err := ix.client.CreateIndex(ix.index).BodyString(indexMapping).Do(ctx); err != nil {
		return fmt.Errorf("create index %s: %w", ix.index, err)
	}
	logger.InfoLog(ctx, "created search index %s", ix.index)
	return nil
}

// Sync brings the index in line with a full snapshot: changed tasks are
// indexed, tasks missing from the snapshot are deleted.
func (ix *Indexer) Sync(ctx context.Context, tasks []domain.Task) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	bulk := ix.client.Bulk().Index(ix.index)
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if !t.Persisted() {
			continue
		}
		seen[t.ID] = struct{}{}
		if prev, ok := ix.indexed[t.ID]; ok && prev == t {
			continue
		}
		bulk.Add(elastic.NewBulkIndexRequest().Id(t.ID).Doc(toDocument(t)))
	}
	for id := range ix.indexed {
		if _, ok := seen[id]; !ok {
			bulk.Add(elastic.NewBulkDeleteRequest().Id(id))
		}
	}
	if bulk.NumberOfActions() == 0 {
		return nil
	}

	resp, err := bulk.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	if resp.Errors {
		for _, item := range resp.Failed() {
			logger.WarnLog(ctx, "index task %s failed: %v", item.Id, item.Error)
		}
		return errors.New("bulk index reported failures")
	}

	next := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		if t.Persisted() {
			next[t.ID] = t
		}
	}
	ix.indexed = next
	return nil
}

// Run keeps the index synced with a live subscription until ctx is done.
func (ix *Indexer) Run(ctx context.Context, store domain.TaskStore) error {
	sub, err := store.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if snap.Err != nil {
				continue
			}
			if err := ix.Sync(ctx, snap.Tasks); err != nil {
				logger.WarnLog(ctx, "search sync: %v", err)
			}
		}
	}
}

// Search matches query against task text, newest first.
func (ix *Indexer) Search(ctx context.Context, query string, limit int) ([]domain.Task, error) {
	q := elastic.NewBoolQuery().
		Should(
			elastic.NewMatchQuery("text", query).Fuzziness("AUTO"),
			elastic.NewMatchPhrasePrefixQuery("text", query),
		).
		MinimumNumberShouldMatch(1)

	res, err := ix.client.Search().
		Index(ix.index).
		Query(q).
		Sort("created_at", false).
		Size(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	out := []domain.Task{}
	if res.Hits == nil {
		return out, nil
	}
	for _, hit := range res.Hits.Hits {
		var doc document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.Id, err)
		}
		out = append(out, domain.Task{
			ID:        hit.Id,
			Text:      doc.Text,
			Mood:      domain.Mood(doc.Mood),
			Completed: doc.Completed,
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}
