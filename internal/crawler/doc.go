// Package crawler holds the article model, run summaries, sentinel errors, and the
// ports (fetcher, store, archive, publisher, clock) shared by the harvester pipeline.
package crawler
