// Package mock provides test doubles for the ai package interfaces.
// Mock embeddings are deterministic so similarity-based tests are stable.
package mock
