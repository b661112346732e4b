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


package badger

import "github.com/poiesic/gnosis/storage"

// MemoryStore bundles in-memory repositories over one shared backend.
// Intended for tests and local experimentation.
type MemoryStore struct {
	Backend    *Backend
	Documents  storage.DocumentRepository
	Pages      storage.PageRepository
	Chunks     storage.ChunkRepository
	Concepts   storage.ConceptRepository
	Categories storage.CategoryRepository
}

// NewMemoryStore creates in-memory repositories for testing.
// Caller must Close the store when done.
func NewMemoryStore() (*MemoryStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	documents, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	pages, err := NewPageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	concepts, err := NewConceptRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	categories, err := NewCategoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryStore{
		Backend:    backend,
		Documents:  documents,
		Pages:      pages,
		Chunks:     chunks,
		Concepts:   concepts,
		Categories: categories,
	}, nil
}

// Close closes all repositories and the shared backend.
func (s *MemoryStore) Close() error {
	s.Categories.Close()
	s.Concepts.Close()
	s.Chunks.Close()
	s.Pages.Close()
	s.Documents.Close()
	return s.Backend.Close()
}
