package googlecloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/datastore"

	"github.com/shreyapuff/petalplanner/internal/domain"
)

// InsertTask stores a new task under an auto-generated int64 id.
func (c *Client) InsertTask(ctx context.Context, t domain.Task) (string, error) {
	key := datastore.IncompleteKey(c.kind, nil)

	newKey, err := c.ds.Put(ctx, key, toEntity(t))
	if err != nil {
		return "", fmt.Errorf("put %s: %w", c.kind, err)
	}
	return formatID(newKey.ID), nil
}

// SetCompleted changes only the completed property, inside a transaction so
// the other properties are written back exactly as read.
func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	key := datastore.IDKey(c.kind, n, nil)

	_, err = c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskEntity
		if err := tx.Get(key, &e); err != nil {
			return WrapDatastoreError(err)
		}
		e.Completed = completed
		_, err := tx.Put(key, &e)
		return err
	})
	return err
}

// ListNewestFirst returns every task ordered by creation time, descending.
// Transient failures are retried.
func (c *Client) ListNewestFirst(ctx context.Context) ([]domain.Task, error) {
	query := datastore.NewQuery(c.kind).Order("-created_at")

	var (
		entities []taskEntity
		keys     []*datastore.Key
	)
	err := WithRetry(ctx, c.retry, func() error {
		entities = nil
		var err error
		keys, err = c.ds.GetAll(ctx, query, &entities)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.kind, err)
	}

	tasks := make([]domain.Task, len(entities))
	for i, key := range keys {
		tasks[i] = entities[i].toTask(key.ID)
	}
	return tasks, nil
}
