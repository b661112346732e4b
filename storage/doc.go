// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for gnosis.
//
// This package defines repository interfaces that decouple storage
// implementation from retrieval logic. It allows for different storage
// backends (BadgerDB, PostgreSQL/pgvector, in-memory) to be used
// interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewDocumentRepository(backend)  // returns storage.DocumentRepository
//
// This design decision prioritizes:
//   - Abstraction: Prevents accidental coupling to backend specifics
//   - Swappability: Easy to add alternative backends
//   - Testing: Consumers can use mock implementations without modification
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern, one repository per
// corpus entity:
//
//   - DocumentRepository: documents and their concept/category indexes
//   - PageRepository: pages and the document/concept page indexes
//   - ChunkRepository: chunks and the document/page/concept chunk indexes
//   - ConceptRepository: the concept lexicon
//   - CategoryRepository: the category tree
//
// Repositories with embedded vectors additionally expose a vector-similarity
// primitive (FindSimilar*) returning nearest neighbors by cosine distance.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. The corpus is read-mostly: writes happen
// at ingestion and rebuild time only.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
