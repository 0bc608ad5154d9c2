package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/news-harvester/internal/crawler"
)

func TestPublisherStoresEvents(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), crawler.ArticleEvent{Link: "https://x.test/a"})
	if err != nil || id1 != "memory-1" {
		t.Fatalf("unexpected publish result id=%s err=%v", id1, err)
	}
	id2, err := pub.Publish(context.Background(), crawler.ArticleEvent{Link: "https://x.test/b"})
	if err != nil || id2 != "memory-2" {
		t.Fatalf("unexpected publish result id=%s err=%v", id2, err)
	}

	events := pub.Events()
	if len(events) != 2 || events[1].Link != "https://x.test/b" {
		t.Fatalf("events not recorded correctly: %+v", events)
	}

	events[0].Link = "modified"
	if pub.Events()[0].Link == "modified" {
		t.Fatal("expected Events() to return a copy")
	}
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	pub := New()
	pub.FailWith(errors.New("topic gone"))
	if _, err := pub.Publish(context.Background(), crawler.ArticleEvent{}); err == nil {
		t.Fatal("expected publish error")
	}
	if len(pub.Events()) != 0 {
		t.Fatal("failed publish must not be recorded")
	}
}
