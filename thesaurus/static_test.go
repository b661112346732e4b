package thesaurus

import (
	"context"
	"errors"
	"testing"
)

func TestStaticLookup(t *testing.T) {
	th := NewStatic(map[string]Entry{
		"Decorator  Pattern": {
			Synonyms:     []string{"wrapper"},
			BroaderTerms: []string{"structural pattern"},
		},
	})

	// lookup normalizes the same way the entry key was normalized
	entry, err := th.Lookup(context.Background(), "decorator pattern")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(entry.Synonyms) != 1 || entry.Synonyms[0] != "wrapper" {
		t.Errorf("Synonyms = %v, want [wrapper]", entry.Synonyms)
	}

	_, err = th.Lookup(context.Background(), "singleton")
	if !errors.Is(err, ErrTermNotFound) {
		t.Errorf("err = %v, want ErrTermNotFound", err)
	}
}

func TestStaticLookup_ContextCancelled(t *testing.T) {
	th := NewStatic(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := th.Lookup(ctx, "anything"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
