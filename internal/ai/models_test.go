package ai

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestModelScore(t *testing.T) {
	cases := map[string]float64{
		"llama-3.3-70b-versatile": 3.3*1000 + 500 + 50,
		"llama-3.1-8b-instant":    3.1*1000 + 100 + 50,
		"mixtral-8x7b-32768":      8*1000 + 40,
		"gemma2-9b-it":            2 * 1000,
		"whisper":                 0,
	}
	for id, want := range cases {
		if got := ModelScore(id); math.Abs(got-want) > 1e-6 {
			t.Errorf("ModelScore(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestRankModelsStable(t *testing.T) {
	in := []string{"whisper-a", "llama-3.1-8b-instant", "llama-3.3-70b-versatile", "whisper-b"}
	got := RankModels(in)
	want := []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant", "whisper-a", "whisper-b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankModels = %v, want %v", got, want)
	}
	if in[0] != "whisper-a" {
		t.Fatalf("input mutated")
	}
}

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) ListModelIDs(context.Context) ([]string, error) { return f.ids, f.err }

func TestDiscoverModelsFallback(t *testing.T) {
	fallback := []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}
	got := DiscoverModels(context.Background(), fakeLister{err: errors.New("401")}, fallback)
	if !reflect.DeepEqual(got, fallback) {
		t.Fatalf("got %v", got)
	}
	got = DiscoverModels(context.Background(), fakeLister{ids: []string{"llama-3.1-8b-instant", "llama-4-scout"}}, fallback)
	if got[0] != "llama-4-scout" {
		t.Fatalf("expected newest version first, got %v", got)
	}
}
