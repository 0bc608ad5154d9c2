// Package postgres provides a Postgres-backed article store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

const defaultTable = "articles"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for article rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// ArticleStore writes article rows into Postgres keyed by link.
type ArticleStore struct {
	pool  pool
	table string
}

// NewArticleStore connects a pool using cfg.
func NewArticleStore(ctx context.Context, cfg Config) (*ArticleStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ArticleStore{pool: p, table: table}, nil
}

// NewArticleStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewArticleStoreWithPool(p pool, table string) (*ArticleStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ArticleStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ArticleStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the article table when it does not exist.
func (s *ArticleStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	link       TEXT PRIMARY KEY,
	judul      TEXT NOT NULL DEFAULT '',
	tanggal    TIMESTAMPTZ,
	isi        TEXT,
	crawled_at TIMESTAMPTZ
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Exists reports whether a row with link is present.
func (s *ArticleStore) Exists(ctx context.Context, link string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE link = $1)`, s.table)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, link).Scan(&exists); err != nil {
		return false, fmt.Errorf("check article %s: %w", link, err)
	}
	return exists, nil
}

// Insert adds a row. A conflicting link inserts nothing and returns
// crawler.ErrDuplicateArticle.
func (s *ArticleStore) Insert(ctx context.Context, article crawler.Article) error {
	if article.Link == "" {
		return fmt.Errorf("article link is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (link, judul, tanggal, isi, crawled_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (link) DO NOTHING`, s.table)

	tag, err := s.pool.Exec(ctx, query,
		article.Link,
		article.Title,
		article.PublishedAt,
		article.Body,
		article.CrawledAt,
	)
	if err != nil {
		return fmt.Errorf("insert article %s: %w", article.Link, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert article %s: %w", article.Link, crawler.ErrDuplicateArticle)
	}
	return nil
}

// List returns up to limit rows, newest tanggal first. limit <= 0 returns all rows.
// Null tanggal, isi, and crawled_at columns come back as zero values.
func (s *ArticleStore) List(ctx context.Context, limit int) ([]crawler.Article, error) {
	query := fmt.Sprintf(
		`SELECT link, judul, tanggal, isi, crawled_at FROM %s ORDER BY tanggal DESC NULLS LAST`, s.table)
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []crawler.Article
	for rows.Next() {
		var (
			a         crawler.Article
			published *time.Time
			body      *string
			crawled   *time.Time
		)
		if err := rows.Scan(&a.Link, &a.Title, &published, &body, &crawled); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if published != nil {
			a.PublishedAt = *published
		}
		if body != nil {
			a.Body = *body
		}
		if crawled != nil {
			a.CrawledAt = *crawled
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}
