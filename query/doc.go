// Package query implements the retrieval-augmented answer pipeline.
//
// A question flows through four stages: embed, retrieve nearest chunks,
// generate, audit. The pipeline degrades instead of failing where it can:
// an unavailable generation model yields a raw context excerpt, an empty
// store yields a fixed no-data answer. Only an embedding failure surfaces
// as an error, because without a query vector there is nothing to retrieve.
package query
