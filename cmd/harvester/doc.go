// Package main hosts the news harvester entrypoint.
//
// Architecture overview:
//   - Scheduler: internal/scheduler registers a daily, a weekly, and an optional interval trigger, runs one
//     harvest at startup when configured, and polls the triggers on a one-second tick. A failing or panicking
//     harvest puts the scheduler into a cooldown before polling resumes.
//   - Harvest: internal/orchestrator walks listing pages 1..N of the search template. Each listing item is
//     fetched, reduced to its body text, and given a publish date (the crawl time when the listing has none),
//     then checked against the article store and inserted if new. Page and item failures are logged and
//     counted; they never abort the run. Only one harvest runs at a time.
//   - Fetch and extract: the Colly fetcher performs single GETs and returns non-2xx responses as data. goquery
//     selectors pull titles, links, dates, and paragraphs; Indonesian date strings are normalized to time.Time.
//   - Persistence and fanout: articles go to MongoDB (default), Postgres, or memory. Raw article HTML may be
//     archived to a local directory or GCS, and stored articles may be announced on Pub/Sub.
//   - Plumbing: Viper loads config from a YAML file and HARVESTER_* env vars; zap writes console lines to
//     stdout and the log file; Prometheus metrics and the article API are served by chi when enabled.
//
// Quick checklist:
//   - Configure: HARVESTER_CRAWL_TOPIC, HARVESTER_CRAWL_PAGES, HARVESTER_STORE_BACKEND,
//     HARVESTER_STORE_MONGO_URI, HARVESTER_SERVER_ENABLED, or the same keys in a YAML file.
//   - Run locally: go run ./cmd/harvester -config config.yaml
//   - Stop with Ctrl-C or SIGTERM; an in-flight harvest stops between pages.
package main
