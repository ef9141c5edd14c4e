package similarity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentci/agentci/internal/model"
)

// LoadCorpus reads signature.json from every run subdirectory under
// runsDir, skipping runs that have no signature yet (still in progress) or
// whose signature.json fails to parse — the same tolerant-skip discipline
// used when scanning trace logs. excludeRunID omits the run being scored
// against its own history.
func LoadCorpus(runsDir, excludeRunID string) (Corpus, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Corpus{}, nil
		}
		return Corpus{}, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var corpus Corpus
	for _, runID := range names {
		if runID == excludeRunID {
			continue
		}
		data, err := os.ReadFile(filepath.Join(runsDir, runID, "signature.json"))
		if err != nil {
			continue
		}
		var sig model.Signature
		if err := json.Unmarshal(data, &sig); err != nil {
			continue
		}
		corpus.RunIDs = append(corpus.RunIDs, runID)
		corpus.Signatures = append(corpus.Signatures, sig)
	}
	return corpus, nil
}
