// Package mongo stores articles in a MongoDB collection keyed by link.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

// Defaults used when the configuration leaves names empty.
const (
	DefaultDatabase   = "CrawlingScrapping"
	DefaultCollection = "coba"
)

// Config describes where articles live.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type articleDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"judul"`
	Published *time.Time         `bson:"tanggal"`
	Link      string             `bson:"link"`
	Body      *string            `bson:"isi"`
	CrawledAt *time.Time         `bson:"crawled_at,omitempty"`
}

func newDocument(a crawler.Article) articleDocument {
	doc := articleDocument{
		Title:     a.Title,
		Link:      a.Link,
		Published: &a.PublishedAt,
		Body:      &a.Body,
	}
	if !a.CrawledAt.IsZero() {
		doc.CrawledAt = &a.CrawledAt
	}
	return doc
}

func (d articleDocument) article() crawler.Article {
	a := crawler.Article{Link: d.Link, Title: d.Title}
	if d.Published != nil {
		a.PublishedAt = *d.Published
	}
	if d.Body != nil {
		a.Body = *d.Body
	}
	if d.CrawledAt != nil {
		a.CrawledAt = *d.CrawledAt
	}
	return a
}

// Store implements crawler.ArticleStore and crawler.ArticleReader.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New wraps an existing collection. The caller owns the client.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Connect dials MongoDB, pings it, and returns a Store that owns the client.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("store.mongo.uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetConnectTimeout(cfg.Timeout).SetServerSelectionTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		if dErr := client.Disconnect(ctx); dErr != nil {
			return nil, fmt.Errorf("ping mongo: %w (disconnect: %v)", err, dErr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Close disconnects the client when the Store owns one.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique index on link.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "link", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("link_unique"),
	})
	if err != nil {
		return fmt.Errorf("create link index: %w", err)
	}
	return nil
}

// Exists reports whether a document with link is present.
func (s *Store) Exists(ctx context.Context, link string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := s.coll.FindOne(ctx, bson.D{{Key: "link", Value: link}}, opts).Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("find article %s: %w", link, err)
	default:
		return true, nil
	}
}

// Insert adds one document. A unique-index violation returns crawler.ErrDuplicateArticle.
func (s *Store) Insert(ctx context.Context, article crawler.Article) error {
	if article.Link == "" {
		return fmt.Errorf("article link is required")
	}
	if _, err := s.coll.InsertOne(ctx, newDocument(article)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert article %s: %w", article.Link, crawler.ErrDuplicateArticle)
		}
		return fmt.Errorf("insert article %s: %w", article.Link, err)
	}
	return nil
}

// List returns up to limit documents, newest tanggal first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]crawler.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "tanggal", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	var docs []articleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	out := make([]crawler.Article, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.article())
	}
	return out, nil
}
