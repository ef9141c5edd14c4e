package similarity

import (
	"runtime"
	"sort"
	"sync"

	"github.com/agentci/agentci/internal/model"
)

// DefaultK is the number of nearest neighbors used for anomaly scoring.
const DefaultK = 5

// DefaultThreshold is the mean-similarity floor below which a run is
// flagged anomalous.
const DefaultThreshold = 0.7

// Neighbor is one scored entry in a nearest-neighbor result set.
type Neighbor struct {
	RunID      string  `json:"run_id"`
	Similarity float64 `json:"similarity"`
}

// Corpus is a named collection of signatures (typically one per run in a
// runs directory) against which a query signature is compared.
type Corpus struct {
	RunIDs     []string
	Signatures []model.Signature
}

// NearestNeighbors scores query against every member of the corpus in
// parallel via a worker pool, then returns the top k by descending
// similarity. k <= 0 returns every scored neighbor.
func NearestNeighbors(query model.Signature, corpus Corpus, k int) []Neighbor {
	if len(corpus.Signatures) == 0 {
		return nil
	}

	vocab := BuildVocabulary(append(append([]model.Signature{}, corpus.Signatures...), query))
	queryVec := Vectorize(Tokens(query), vocab)

	neighbors := scoreCorpus(corpus, vocab, queryVec)

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})

	if k > 0 && k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// AnomalyResult is the outcome of scoring a run against its corpus.
type AnomalyResult struct {
	Score     float64    `json:"score"`
	Anomalous bool       `json:"anomalous"`
	K         int        `json:"k"`
	Threshold float64    `json:"threshold"`
	Neighbors []Neighbor `json:"neighbors"`
}

// Score computes the mean similarity of query to its k nearest neighbors in
// corpus and flags it anomalous when that mean falls below threshold. An
// empty corpus is never anomalous (score 1.0, no prior history to compare).
func Score(query model.Signature, corpus Corpus, k int, threshold float64) AnomalyResult {
	if k <= 0 {
		k = DefaultK
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(corpus.Signatures) == 0 {
		return AnomalyResult{Score: 1.0, Anomalous: false, K: k, Threshold: threshold}
	}

	neighbors := NearestNeighbors(query, corpus, k)
	var sum float64
	for _, n := range neighbors {
		sum += n.Similarity
	}
	mean := sum / float64(len(neighbors))

	return AnomalyResult{
		Score:     mean,
		Anomalous: mean < threshold,
		K:         k,
		Threshold: threshold,
		Neighbors: neighbors,
	}
}

// scoreCorpus vectorizes and scores every corpus member against queryVec
// concurrently, bounded to GOMAXPROCS workers so a large runs directory
// doesn't spawn one goroutine per signature. Results are written by index
// rather than appended, so the returned slice preserves corpus order
// regardless of which worker finishes first.
func scoreCorpus(corpus Corpus, vocab *Vocabulary, queryVec Vector) []Neighbor {
	n := len(corpus.Signatures)
	neighbors := make([]Neighbor, n)

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}

	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				vec := Vectorize(Tokens(corpus.Signatures[i]), vocab)
				neighbors[i] = Neighbor{RunID: corpus.RunIDs[i], Similarity: Cosine(queryVec, vec)}
			}
		}()
	}
	wg.Wait()

	return neighbors
}
