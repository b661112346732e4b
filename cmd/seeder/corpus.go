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


package main

// builtinCorpus is a small software engineering corpus used when no -src
// file is given.
var builtinCorpus = &seedCorpus{
	Categories: []seedCategory{
		{
			Name:        "software design",
			Description: "Principles and practices for structuring software systems",
			Aliases:     []string{"design"},
		},
		{
			Name:        "design patterns",
			Description: "Reusable solutions to recurring design problems",
			Aliases:     []string{"patterns"},
			Parent:      "software design",
		},
		{
			Name:        "structural patterns",
			Description: "Patterns concerned with object and class composition",
			Parent:      "design patterns",
		},
		{
			Name:        "behavioral patterns",
			Description: "Patterns concerned with object interaction and responsibility",
			Parent:      "design patterns",
		},
		{
			Name:        "distributed systems",
			Description: "Coordination and communication across machines",
			Related:     []string{"software design"},
		},
	},
	Concepts: []seedConcept{
		{
			Name:     "decorator",
			Category: "structural patterns",
			Synonyms: []string{"wrapper"},
			Broader:  []string{"structural pattern"},
			Related:  []string{"composite", "adapter"},
		},
		{
			Name:     "composite",
			Category: "structural patterns",
			Broader:  []string{"structural pattern"},
			Related:  []string{"decorator"},
		},
		{
			Name:     "adapter",
			Category: "structural patterns",
			Synonyms: []string{"translator"},
			Related:  []string{"decorator"},
		},
		{
			Name:     "observer",
			Category: "behavioral patterns",
			Synonyms: []string{"publish subscribe"},
			Narrower: []string{"event listener"},
			Related:  []string{"message queue"},
		},
		{
			Name:     "message queue",
			Category: "distributed systems",
			Synonyms: []string{"message broker"},
			Related:  []string{"observer", "consensus"},
		},
		{
			Name:     "consensus",
			Category: "distributed systems",
			Narrower: []string{"raft", "paxos"},
			Related:  []string{"message queue"},
		},
	},
	Documents: []seedDocument{
		{
			Source:     "books/design-patterns-in-practice.pdf",
			Title:      "Design Patterns in Practice",
			Author:     "M. Alvarez",
			Year:       2019,
			Publisher:  "Meridian Press",
			Summary:    "A practical tour of classic design patterns with worked examples, covering structural composition and behavioral coordination.",
			Categories: []string{"design patterns"},
			Pages: []seedPage{
				{
					Number: 12,
					Chunks: []seedChunk{
						{
							Text:     "The decorator pattern attaches additional responsibilities to an object dynamically, wrapping the component behind the same interface.",
							Concepts: []string{"decorator"},
						},
						{
							Text:     "Unlike subclassing, a decorator can be stacked at runtime, and each wrapper remains unaware of the others in the chain.",
							Concepts: []string{"decorator"},
						},
					},
				},
				{
					Number: 31,
					Chunks: []seedChunk{
						{
							Text:     "The composite pattern arranges objects into tree structures so that clients treat leaves and compositions uniformly.",
							Concepts: []string{"composite"},
						},
						{
							Text:     "Decorator and composite are often confused: both rely on recursive composition, but a decorator has exactly one child.",
							Concepts: []string{"decorator", "composite"},
						},
					},
				},
			},
		},
		{
			Source:     "books/event-driven-architectures.pdf",
			Title:      "Event-Driven Architectures",
			Author:     "K. Osei",
			Year:       2021,
			Publisher:  "Meridian Press",
			Summary:    "How observers, message brokers and asynchronous pipelines decouple producers from consumers in large systems.",
			Categories: []string{"behavioral patterns", "distributed systems"},
			Pages: []seedPage{
				{
					Number: 7,
					Chunks: []seedChunk{
						{
							Text:     "An observer registers interest in a subject and is notified on every state change, inverting the direction of control.",
							Concepts: []string{"observer"},
						},
						{
							Text:     "A message queue generalizes the observer relationship across process boundaries, buffering events until consumers are ready.",
							Concepts: []string{"observer", "message queue"},
						},
					},
				},
				{
					Number: 54,
					Chunks: []seedChunk{
						{
							Text:     "When brokers are replicated, the replicas must agree on delivery order, which reduces to a consensus problem.",
							Concepts: []string{"message queue", "consensus"},
						},
					},
				},
			},
		},
		{
			Source:     "papers/consensus-survey.pdf",
			Title:      "A Survey of Consensus Protocols",
			Author:     "L. Ferrand",
			Year:       2020,
			Summary:    "Comparative study of agreement protocols for replicated state machines, from classical Paxos to leader-based Raft.",
			Categories: []string{"distributed systems"},
			Pages: []seedPage{
				{
					Number: 2,
					Chunks: []seedChunk{
						{
							Text:     "Consensus requires that all correct replicas decide on the same value despite failures and message reordering.",
							Concepts: []string{"consensus"},
						},
						{
							Text:     "Leader-based protocols funnel proposals through an elected coordinator, trading availability during elections for simpler reasoning.",
							Concepts: []string{"consensus"},
						},
					},
				},
			},
		},
	},
}
