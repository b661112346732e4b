package index

import (
	"context"
	"testing"

	"github.com/poiesic/gnosis/core"
)

func chunk(text string) *core.Chunk {
	return &core.Chunk{Id: core.IDFromContent(text), Text: text}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Decorator-Pattern, v2!")
	want := []string{"the", "decorator", "pattern", "v2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSignificantTokens_DropsStopWords(t *testing.T) {
	got := SignificantTokens("the pattern is a wrapper")
	want := []string{"pattern", "wrapper"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuild_DocFreqAndIDF(t *testing.T) {
	chunks := []*core.Chunk{
		chunk("decorator pattern wraps objects"),
		chunk("decorator adds behavior dynamically"),
		chunk("observer pattern notifies listeners"),
	}
	ix, err := Build(context.Background(), chunks, 2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.TotalChunks() != 3 {
		t.Errorf("TotalChunks = %d, want 3", ix.TotalChunks())
	}
	if df := ix.DocFreq("decorator"); df != 2 {
		t.Errorf("DocFreq(decorator) = %d, want 2", df)
	}
	if df := ix.DocFreq("observer"); df != 1 {
		t.Errorf("DocFreq(observer) = %d, want 1", df)
	}
	if ix.IDF("observer") <= ix.IDF("pattern") {
		t.Error("rarer term should have higher IDF")
	}
	if ix.IDF("zzz-unknown") < ix.IDF("observer") {
		t.Error("unknown term should have at least the rarest term's IDF")
	}
}

func TestCoOccurring_Deterministic(t *testing.T) {
	chunks := []*core.Chunk{
		chunk("decorator pattern wraps objects"),
		chunk("decorator pattern composes wrappers"),
		chunk("decorator wraps components"),
	}
	ix, err := Build(context.Background(), chunks, 1, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := ix.CoOccurring("decorator", 2)
	if len(got) != 2 {
		t.Fatalf("got %d terms, want 2", len(got))
	}
	// pattern and wraps both co-occur twice; lexical order breaks the tie
	if got[0].Term != "pattern" || got[0].Count != 2 {
		t.Errorf("first = %+v, want pattern/2", got[0])
	}
	if got[1].Term != "wraps" || got[1].Count != 2 {
		t.Errorf("second = %+v, want wraps/2", got[1])
	}
}

func TestBuild_EmptyCorpus(t *testing.T) {
	ix, err := Build(context.Background(), nil, 2, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.TotalChunks() != 0 {
		t.Errorf("TotalChunks = %d, want 0", ix.TotalChunks())
	}
	if terms := ix.CoOccurring("anything", 5); terms != nil {
		t.Errorf("CoOccurring on empty index = %v, want nil", terms)
	}
}
