package publisher

import (
	"context"

	"github.com/ryosukesatoh/rss-summarizer/internal/store"
)

// Publisher receives each batch of articles after it has been persisted.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, articles []store.Article) error
}
