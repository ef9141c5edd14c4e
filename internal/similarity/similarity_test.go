package similarity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentci/agentci/internal/model"
)

func sig(writes, hosts []string) model.Signature {
	return model.Signature{Effects: model.Effects{FSWrites: writes, NetHosts: hosts}}
}

func TestTokens_SortedAndPrefixed(t *testing.T) {
	s := model.Signature{Effects: model.Effects{
		FSWrites: []string{"src/b.ts", "src/a.ts"},
		NetPorts: []int{443},
	}}
	tokens := Tokens(s)
	want := []string{"fs_w:src/a.ts", "fs_w:src/b.ts", "net_port:443"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i, tok := range want {
		if tokens[i] != tok {
			t.Errorf("index %d: got %q, want %q", i, tokens[i], tok)
		}
	}
}

func TestCosine_IdenticalIsOne(t *testing.T) {
	vocab := BuildVocabulary([]model.Signature{sig([]string{"a.ts"}, nil)})
	v := Vectorize(Tokens(sig([]string{"a.ts"}, nil)), vocab)
	if got := Cosine(v, v); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
}

func TestCosine_DisjointIsZero(t *testing.T) {
	vocab := BuildVocabulary([]model.Signature{
		sig([]string{"a.ts"}, nil),
		sig([]string{"b.ts"}, nil),
	})
	va := Vectorize(Tokens(sig([]string{"a.ts"}, nil)), vocab)
	vb := Vectorize(Tokens(sig([]string{"b.ts"}, nil)), vocab)
	if got := Cosine(va, vb); got != 0.0 {
		t.Errorf("expected 0.0, got %v", got)
	}
}

func TestCosine_BothEmptyIsOne(t *testing.T) {
	vocab := BuildVocabulary(nil)
	v := Vectorize(nil, vocab)
	if got := Cosine(v, v); got != 1.0 {
		t.Errorf("expected 1.0 for two empty vectors, got %v", got)
	}
}

func TestCosine_PartialOverlap(t *testing.T) {
	vocab := BuildVocabulary([]model.Signature{
		sig([]string{"a.ts", "b.ts"}, nil),
		sig([]string{"a.ts", "c.ts"}, nil),
	})
	va := Vectorize(Tokens(sig([]string{"a.ts", "b.ts"}, nil)), vocab)
	vb := Vectorize(Tokens(sig([]string{"a.ts", "c.ts"}, nil)), vocab)
	got := Cosine(va, vb)
	if got <= 0 || got >= 1 {
		t.Errorf("expected similarity strictly between 0 and 1, got %v", got)
	}
}

func TestNearestNeighbors_RanksByDescendingSimilarity(t *testing.T) {
	query := sig([]string{"a.ts", "b.ts"}, nil)
	corpus := Corpus{
		RunIDs: []string{"close", "far", "identical"},
		Signatures: []model.Signature{
			sig([]string{"a.ts"}, nil),
			sig([]string{"z.ts"}, nil),
			sig([]string{"a.ts", "b.ts"}, nil),
		},
	}

	neighbors := NearestNeighbors(query, corpus, 0)
	if len(neighbors) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(neighbors))
	}
	if neighbors[0].RunID != "identical" {
		t.Errorf("expected identical run first, got %+v", neighbors)
	}
	if neighbors[len(neighbors)-1].RunID != "far" {
		t.Errorf("expected far run last, got %+v", neighbors)
	}
}

func TestNearestNeighbors_LimitK(t *testing.T) {
	query := sig([]string{"a.ts"}, nil)
	corpus := Corpus{
		RunIDs: []string{"r1", "r2", "r3"},
		Signatures: []model.Signature{
			sig([]string{"a.ts"}, nil),
			sig([]string{"b.ts"}, nil),
			sig([]string{"c.ts"}, nil),
		},
	}
	neighbors := NearestNeighbors(query, corpus, 2)
	if len(neighbors) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(neighbors))
	}
}

func TestScore_EmptyCorpusNotAnomalous(t *testing.T) {
	result := Score(sig([]string{"a.ts"}, nil), Corpus{}, 0, 0)
	if result.Anomalous {
		t.Errorf("expected not anomalous for empty corpus")
	}
	if result.Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", result.Score)
	}
}

func TestScore_BelowThresholdIsAnomalous(t *testing.T) {
	query := sig([]string{"exfil.ts"}, []string{"evil.example.com"})
	corpus := Corpus{
		RunIDs: []string{"r1", "r2", "r3"},
		Signatures: []model.Signature{
			sig([]string{"src/a.ts"}, []string{"api.good.com"}),
			sig([]string{"src/b.ts"}, []string{"api.good.com"}),
			sig([]string{"src/c.ts"}, []string{"api.good.com"}),
		},
	}
	result := Score(query, corpus, 3, 0.7)
	if !result.Anomalous {
		t.Errorf("expected anomalous, got score %v", result.Score)
	}
}

func TestScore_SimilarHistoryIsNotAnomalous(t *testing.T) {
	query := sig([]string{"src/a.ts"}, []string{"api.good.com"})
	corpus := Corpus{
		RunIDs: []string{"r1", "r2"},
		Signatures: []model.Signature{
			sig([]string{"src/a.ts"}, []string{"api.good.com"}),
			sig([]string{"src/a.ts"}, []string{"api.good.com"}),
		},
	}
	result := Score(query, corpus, 2, 0.7)
	if result.Anomalous {
		t.Errorf("expected not anomalous, got score %v", result.Score)
	}
}

func TestLoadCorpus_SkipsMalformedAndExcludesSelf(t *testing.T) {
	dir := t.TempDir()

	writeSig := func(runID string, s model.Signature) {
		runDir := filepath.Join(dir, runID)
		if err := os.MkdirAll(runDir, 0o700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		data, _ := json.Marshal(s)
		if err := os.WriteFile(filepath.Join(runDir, "signature.json"), data, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	writeSig("run-a", sig([]string{"a.ts"}, nil))
	writeSig("run-b", sig([]string{"b.ts"}, nil))
	writeSig("run-self", sig([]string{"self.ts"}, nil))

	malformedDir := filepath.Join(dir, "run-malformed")
	os.MkdirAll(malformedDir, 0o700)
	os.WriteFile(filepath.Join(malformedDir, "signature.json"), []byte("{not json"), 0o600)

	os.MkdirAll(filepath.Join(dir, "run-pending"), 0o700)

	corpus, err := LoadCorpus(dir, "run-self")
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(corpus.RunIDs) != 2 {
		t.Fatalf("expected 2 runs, got %v", corpus.RunIDs)
	}
	for _, id := range corpus.RunIDs {
		if id == "run-self" || id == "run-malformed" || id == "run-pending" {
			t.Errorf("unexpected run in corpus: %s", id)
		}
	}
}

func TestLoadCorpus_MissingDirReturnsEmpty(t *testing.T) {
	corpus, err := LoadCorpus(filepath.Join(t.TempDir(), "nonexistent"), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(corpus.RunIDs) != 0 {
		t.Errorf("expected empty corpus, got %+v", corpus)
	}
}
