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


// Package search implements the query surface of Gnosis: document discovery,
// passage retrieval within one document or across the corpus, concept
// exploration and category navigation.
//
// Every textual query follows the same shape: the query is expanded against
// corpus statistics and the thesaurus, candidates are gathered through a
// vector similarity pass united with concept-tag lookups, each candidate is
// scored on several signals, and the fused scores are cut at the first
// natural gap. The fusion weights differ per operation; see the rank
// package.
//
// Monitors can observe every stage of a query without influencing its
// outcome, and debug queries additionally carry per-signal score breakdowns
// on each hit.
package search
