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


package navigate

import "errors"

var (
	// ErrRepositoriesRequired is returned when a repository is not provided.
	ErrRepositoriesRequired = errors.New("document, page, chunk and concept repositories required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrSnapshotProviderRequired is returned when a snapshot provider is not provided.
	ErrSnapshotProviderRequired = errors.New("snapshot provider required")

	// ErrNotReady is returned when no snapshot has been built yet.
	ErrNotReady = errors.New("index and caches not built yet")
)
