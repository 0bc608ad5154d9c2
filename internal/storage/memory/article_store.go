// Package memory keeps articles and archived pages in process memory for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// ArticleStore is a mutex-guarded map keyed by link.
type ArticleStore struct {
	mu       sync.RWMutex
	articles map[string]crawler.Article
}

// NewArticleStore constructs an empty ArticleStore.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		articles: make(map[string]crawler.Article),
	}
}

// Exists reports whether link has been stored.
func (s *ArticleStore) Exists(_ context.Context, link string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.articles[link]
	return ok, nil
}

// Insert stores a new article, rejecting a link that is already present.
func (s *ArticleStore) Insert(_ context.Context, article crawler.Article) error {
	if article.Link == "" {
		return fmt.Errorf("article link is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.articles[article.Link]; exists {
		return fmt.Errorf("insert %s: %w", article.Link, crawler.ErrDuplicateArticle)
	}
	s.articles[article.Link] = article
	return nil
}

// List returns up to limit articles, newest publication first. limit <= 0 returns all.
func (s *ArticleStore) List(_ context.Context, limit int) ([]crawler.Article, error) {
	s.mu.RLock()
	out := make([]crawler.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].Link < out[j].Link
		}
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored articles.
func (s *ArticleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.articles)
}
