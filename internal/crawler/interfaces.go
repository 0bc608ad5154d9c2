package crawler

import (
	"context"
	"time"
)

// Fetcher fetches a URL and returns the body plus status.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// ArticleStore is the append-only persistence gateway keyed by article link.
// Exists followed by Insert is not atomic; a second writer racing on the same link
// gets ErrDuplicateArticle from backends that enforce a unique key.
type ArticleStore interface {
	Exists(ctx context.Context, link string) (bool, error)
	Insert(ctx context.Context, article Article) error
}

// ArticleReader is the read contract offered to dashboards and the HTTP API.
type ArticleReader interface {
	List(ctx context.Context, limit int) ([]Article, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher announces stored articles to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event ArticleEvent) (string, error)
}

// Limiter paces outbound requests per host.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Hasher computes digests used for archive keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
