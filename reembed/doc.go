// Package reembed regenerates the stored embeddings of a corpus after an
// embedding model change.
//
// Documents, passages and concepts are processed in batches with progress
// tracking, retry with exponential backoff, and vector normalization so the
// new vectors remain usable for cosine similarity search.
package reembed
