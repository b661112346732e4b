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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Source must not be empty
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (can be empty until embedded)
//   - ConceptIds / CategoryIds (can be empty until extraction runs)
//   - Title, Author, Year, Publisher (optional bibliographic fields)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Source == "" {
		return fmt.Errorf("%w: source locator is required", ErrInvalidDocument)
	}

	return nil
}

// ValidatePage validates a Page according to domain rules.
//
// Validation rules:
//   - DocumentId must reference a document
//   - Number must be positive
func ValidatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("%w: page is nil", ErrInvalidPage)
	}

	if page.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrUnknownDocument)
	}

	if page.Number < 1 {
		return fmt.Errorf("%w: page number must be positive, got %d", ErrInvalidPage, page.Number)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - DocumentId must reference a document
//   - Density must be non-negative
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrUnknownDocument)
	}

	if chunk.Density < 0 {
		return fmt.Errorf("%w: density must be non-negative, got %f", ErrInvalidChunk, chunk.Density)
	}

	return nil
}

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - Name must not be empty and must be in canonical form
//   - Id must match the content hash of the canonical name
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if concept.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyName)
	}

	if concept.Name != NormalizeName(concept.Name) {
		return fmt.Errorf("%w: name %q is not in canonical form", ErrInvalidConcept, concept.Name)
	}

	if concept.Id != 0 && concept.Id != ConceptID(concept.Name) {
		return fmt.Errorf("%w: id does not match canonical name hash", ErrInvalidConcept)
	}

	return nil
}

// ValidateCategory validates a Category according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - ParentId must not point at the category itself
func ValidateCategory(category *Category) error {
	if category == nil {
		return fmt.Errorf("%w: category is nil", ErrInvalidCategory)
	}

	if category.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCategory, ErrEmptyName)
	}

	if category.ParentId != 0 && category.ParentId == category.Id {
		return fmt.Errorf("%w: category cannot be its own parent", ErrInvalidCategory)
	}

	return nil
}
