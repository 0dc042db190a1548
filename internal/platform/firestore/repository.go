package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Encoder converts an entity into the value stored in Firestore.
type Encoder[T any] func(value T) (any, error)

// Collection binds a typed encoder to one Firestore collection.
type Collection[T any] struct {
	provider *Provider
	name     string
	encode   Encoder[T]
}

// NewCollection returns a helper for the named collection. A nil encoder stores values as-is.
func NewCollection[T any](provider *Provider, name string, encode Encoder[T]) *Collection[T] {
	if encode == nil {
		encode = func(value T) (any, error) { return value, nil }
	}
	return &Collection[T]{
		provider: provider,
		name:     strings.TrimSpace(name),
		encode:   encode,
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Create stores value under id. An existing document yields an Error with IsConflict.
func (c *Collection[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	payload, err := c.encode(value)
	if err != nil {
		return fmt.Errorf("firestore: encode %s/%s: %w", c.name, id, err)
	}
	if _, err := ref.Create(ctx, payload); err != nil {
		return WrapError(c.op("create"), err)
	}
	return nil
}

// Doc returns the reference for id, for use inside transactions.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(c.op("doc"), errors.New("firestore: document id is required"))
	}
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

// IDs runs the query built by build and returns matching document ids without reading their fields.
func (c *Collection[T]) IDs(ctx context.Context, build func(firestore.Query) firestore.Query) ([]string, error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Select()
	if build != nil {
		query = build(query)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return ids, nil
		}
		if err != nil {
			return nil, WrapError(c.op("query"), err)
		}
		ids = append(ids, snap.Ref.ID)
	}
}

// DeleteAll removes ids through a bulk writer and reports how many deletes succeeded.
// The first failure is returned alongside the partial count.
func (c *Collection[T]) DeleteAll(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	client, err := c.client(ctx)
	if err != nil {
		return 0, err
	}
	coll := client.Collection(c.name)

	writer := client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(ids))
	for _, id := range ids {
		job, err := writer.Delete(coll.Doc(id))
		if err != nil {
			writer.End()
			return 0, WrapError(c.op("delete"), err)
		}
		jobs = append(jobs, job)
	}
	writer.End()

	deleted := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			if firstErr == nil {
				firstErr = WrapError(c.op("delete"), err)
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// Ping reads at most one document id to prove the collection is reachable.
func (c *Collection[T]) Ping(ctx context.Context) error {
	_, err := c.IDs(ctx, func(q firestore.Query) firestore.Query { return q.Limit(1) })
	return err
}

func (c *Collection[T]) ref(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

func (c *Collection[T]) client(ctx context.Context) (*firestore.Client, error) {
	switch {
	case c == nil || c.provider == nil:
		return nil, WrapError("firestore.client", errors.New("firestore: provider is nil"))
	case c.name == "":
		return nil, WrapError("firestore.client", errors.New("firestore: collection name is required"))
	}
	return c.provider.Client(ctx)
}

func (c *Collection[T]) op(action string) string {
	return c.name + "." + action
}
