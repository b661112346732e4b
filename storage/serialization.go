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


package storage

import (
	"github.com/poiesic/gnosis/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(document *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*document))
	core.DocumentMUS.Marshal(*document, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	document, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// MarshalPage serializes a Page to bytes.
func MarshalPage(page *core.Page) []byte {
	buf := make([]byte, core.PageMUS.Size(*page))
	core.PageMUS.Marshal(*page, buf)
	return buf
}

// UnmarshalPage deserializes a Page from bytes.
func UnmarshalPage(data []byte) (*core.Page, error) {
	page, _, err := core.PageMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalConcept serializes a Concept to bytes.
func MarshalConcept(concept *core.Concept) []byte {
	buf := make([]byte, core.ConceptMUS.Size(*concept))
	core.ConceptMUS.Marshal(*concept, buf)
	return buf
}

// UnmarshalConcept deserializes a Concept from bytes.
func UnmarshalConcept(data []byte) (*core.Concept, error) {
	concept, _, err := core.ConceptMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &concept, nil
}

// MarshalCategory serializes a Category to bytes.
func MarshalCategory(category *core.Category) []byte {
	buf := make([]byte, core.CategoryMUS.Size(*category))
	core.CategoryMUS.Marshal(*category, buf)
	return buf
}

// UnmarshalCategory deserializes a Category from bytes.
func UnmarshalCategory(data []byte) (*core.Category, error) {
	category, _, err := core.CategoryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &category, nil
}
