// Package similarity implements the Similarity Layer (C11): vocabulary
// tokenization, sparse L2-normalized vectorization, cosine similarity, and
// brute-force K-NN anomaly scoring over a runs directory, per §4.11.
package similarity

import (
	"sort"
	"strconv"

	"github.com/agentci/agentci/internal/model"
)

// fieldPrefix maps each of the ten effect fields to its token prefix.
var fieldPrefix = map[string]string{
	"fs_writes":               "fs_w",
	"fs_reads_external":       "fs_r",
	"fs_deletes":              "fs_d",
	"net_protocols":           "net_p",
	"net_etld_plus_1":         "net_e",
	"net_hosts":               "net_h",
	"net_ports":               "net_port",
	"exec_commands":           "exec_c",
	"exec_argv":               "exec_a",
	"sensitive_keys_accessed": "sens",
}

// Tokens returns the sorted, deduplicated token set for one signature:
// every effect value v in category C contributes "C_prefix:v".
func Tokens(sig model.Signature) []string {
	seen := map[string]struct{}{}
	for _, name := range model.FieldNames {
		prefix := fieldPrefix[name]
		if name == "net_ports" {
			for _, port := range sig.Effects.IntField(name) {
				seen[prefix+":"+strconv.Itoa(port)] = struct{}{}
			}
			continue
		}
		for _, v := range sig.Effects.StringField(name) {
			seen[prefix+":"+v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Vocabulary is the sorted token universe of a signature collection, with
// each token's position serving as its vector index.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// BuildVocabulary derives the vocabulary from a collection of signatures.
func BuildVocabulary(sigs []model.Signature) *Vocabulary {
	seen := map[string]struct{}{}
	for _, sig := range sigs {
		for _, tok := range Tokens(sig) {
			seen[tok] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	index := make(map[string]int, len(tokens))
	for i, t := range tokens {
		index[t] = i
	}
	return &Vocabulary{tokens: tokens, index: index}
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int { return len(v.tokens) }

// IndexOf returns the position of tok in the vocabulary, or -1 if absent.
func (v *Vocabulary) IndexOf(tok string) int {
	if i, ok := v.index[tok]; ok {
		return i
	}
	return -1
}
