package port

import "context"

// Fetcher downloads a JSON document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
