package memory

import (
	"math"
	"testing"
)

func TestBuild_Validation(t *testing.T) {
	docs := []Document{{ID: "1"}, {ID: "2"}}

	if _, err := Build(docs, [][]float32{{1, 0}}); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := Build(nil, nil); err == nil {
		t.Error("expected empty index error")
	}
	if _, err := Build(docs, [][]float32{{1, 0}, {1, 0, 0}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := Build(docs[:1], [][]float32{{}}); err == nil {
		t.Error("expected invalid dimension error")
	}
}

func TestSearch_CosineOrder(t *testing.T) {
	ix, err := Build(
		[]Document{{ID: "east"}, {ID: "north"}, {ID: "northeast"}},
		[][]float32{{1, 0}, {0, 5}, {3, 3}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search([]float32{0, 2}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ID != "north" || hits[1].ID != "northeast" || hits[2].ID != "east" {
		t.Errorf("unexpected order: %s, %s, %s", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("expected score 1 for identical direction, got %f", hits[0].Score)
	}
}

func TestSearch_TopKClamped(t *testing.T) {
	ix, _ := Build([]Document{{ID: "seed", Text: "seed"}}, [][]float32{{0.2, 0.1}})

	hits, err := ix.Search([]float32{1, 1}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "seed" {
		t.Errorf("expected the single seed document, got %+v", hits)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	ix, _ := Build([]Document{{ID: "1"}}, [][]float32{{1, 0}})

	if _, err := ix.Search([]float32{1, 0, 0}, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_ZeroQuery(t *testing.T) {
	ix, _ := Build([]Document{{ID: "1"}, {ID: "2"}}, [][]float32{{1, 0}, {0, 1}})

	hits, err := ix.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, h := range hits {
		if h.Score != 0 {
			t.Errorf("expected zero score for zero query, got %f", h.Score)
		}
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	vec := []float32{3, 4}
	ix, _ := Build([]Document{{ID: "1"}}, [][]float32{vec})
	vec[0] = -100

	hits, _ := ix.Search([]float32{3, 4}, 1)
	if math.Abs(hits[0].Score-1) > 1e-6 {
		t.Errorf("index changed after input mutation, score=%f", hits[0].Score)
	}
}
