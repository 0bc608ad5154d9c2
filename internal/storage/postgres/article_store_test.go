package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *ArticleStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewArticleStoreWithPool(mock, "")
	require.NoError(t, err)
	return mock, store
}

func TestInsertArticleRow(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	now := time.Unix(1747390860, 0).UTC()
	article := crawler.Article{
		Link:        "https://news.detik.com/berita/d-1/satu",
		Title:       "Berita Satu",
		PublishedAt: now,
		Body:        "Isi berita",
		CrawledAt:   now.Add(time.Hour),
	}

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(article.Link, article.Title, article.PublishedAt, article.Body, article.CrawledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Insert(context.Background(), article))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConflictIsDuplicate(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectExec("INSERT INTO articles").
		WithArgs("https://x.test/a", "", time.Time{}, "", time.Time{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := store.Insert(context.Background(), crawler.Article{Link: "https://x.test/a"})
	require.True(t, errors.Is(err, crawler.ErrDuplicateArticle))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPropagatesDatabaseError(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectExec("INSERT INTO articles").
		WithArgs("https://x.test/a", "", time.Time{}, "", time.Time{}).
		WillReturnError(errors.New("connection reset"))

	err := store.Insert(context.Background(), crawler.Article{Link: "https://x.test/a"})
	require.Error(t, err)
	require.False(t, errors.Is(err, crawler.ErrDuplicateArticle))
}

func TestExists(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("https://x.test/a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := store.Exists(context.Background(), "https://x.test/a")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListArticles(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)
	published := time.Date(2025, 5, 16, 10, 21, 0, 0, time.UTC)
	body := "Isi"
	mock.ExpectQuery("SELECT link, judul, tanggal, isi, crawled_at FROM articles").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"link", "judul", "tanggal", "isi", "crawled_at"}).
			AddRow("https://x.test/a", "A", &published, &body, &published))

	list, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, []crawler.Article{{
		Link:        "https://x.test/a",
		Title:       "A",
		PublishedAt: published,
		Body:        "Isi",
		CrawledAt:   published,
	}}, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewArticleStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewArticleStore(context.Background(), Config{})
	require.Error(t, err)

	_, err = NewArticleStoreWithPool(nil, "articles")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewArticleStoreWithPool(mock, "bad-name;")
	require.Error(t, err)
}
