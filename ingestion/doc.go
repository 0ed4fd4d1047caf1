// Package ingestion turns a source document into an embedded chunk store.
//
// The pipeline is deliberately sequential: one embedding request at a time
// with a fixed pace between requests, because the free inference tiers it
// targets rate-limit aggressively. A document small enough to chunk in the
// hundreds ingests in under a minute; parallelism would only trade that for
// 429s.
package ingestion
