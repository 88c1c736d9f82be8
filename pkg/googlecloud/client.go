package googlecloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"

	"github.com/shreyapuff/petalplanner/internal/logger"
)

// DefaultKind is the entity kind tasks are stored under.
const DefaultKind = "Task"

// Client wraps the Google Cloud Datastore client to provide task storage.
type Client struct {
	ds    *datastore.Client
	kind  string
	retry RetryConfig
}

// NewClient creates a new Google Cloud Datastore client.
// The official client detects DATASTORE_EMULATOR_HOST on its own.
func NewClient(ctx context.Context, projectID, kind string) (*Client, error) {
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		logger.InfoLog(ctx, "Initializing Datastore client against emulator at %s", emulatorHost)
	}

	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}

	if kind == "" {
		kind = DefaultKind
	}
	return &Client{ds: ds, kind: kind, retry: DefaultRetryConfig()}, nil
}

// Close closes the underlying datastore client.
func (c *Client) Close() error {
	return c.ds.Close()
}
