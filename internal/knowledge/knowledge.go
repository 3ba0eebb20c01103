// Package knowledge holds the static reference corpus consulted by the
// triage pipeline. The corpus is embedded at build time, loaded once, and
// never mutated afterwards, so concurrent readers need no locking.
package knowledge

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Chunk is one reference record in the corpus.
type Chunk struct {
	ID            string   `yaml:"id" json:"id"`
	Category      string   `yaml:"category" json:"category"`
	ViolationType string   `yaml:"violation_type,omitempty" json:"violation_type,omitempty"`
	Severity      string   `yaml:"severity,omitempty" json:"severity,omitempty"`
	Unit          string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Content       string   `yaml:"content" json:"content"`
	Tags          []string `yaml:"tags" json:"tags"`
}

// Base is the loaded corpus. Construct with Load.
type Base struct {
	chunks []Chunk
	byID   map[string]int
}

// Load parses the embedded corpus.
func Load() (*Base, error) {
	var doc struct {
		Chunks []Chunk `yaml:"chunks"`
	}
	if err := yaml.Unmarshal(corpusYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "knowledge: parse corpus")
	}
	if len(doc.Chunks) == 0 {
		return nil, eris.New("knowledge: corpus is empty")
	}

	byID := make(map[string]int, len(doc.Chunks))
	for i, c := range doc.Chunks {
		if c.ID == "" {
			return nil, eris.Errorf("knowledge: chunk %d has no id", i)
		}
		if _, dup := byID[c.ID]; dup {
			return nil, eris.Errorf("knowledge: duplicate chunk id %s", c.ID)
		}
		byID[c.ID] = i
	}

	return &Base{chunks: doc.Chunks, byID: byID}, nil
}

// Result pairs a chunk with its relevance score for one query.
type Result struct {
	Chunk
	Score int `json:"score"`
}

// Search ranks chunks by keyword overlap with the query, highest first.
// Ties keep corpus insertion order so results are stable across calls.
// An empty category matches every category.
func (b *Base) Search(query, category string, topK int) []Result {
	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)

	var results []Result
	for _, c := range b.chunks {
		if category != "" && c.Category != category {
			continue
		}

		score := 0
		contentLower := strings.ToLower(c.Content)

		if queryLower != "" && strings.Contains(contentLower, queryLower) {
			score += 10
		}
		for _, w := range words {
			if len(w) > 3 && strings.Contains(contentLower, w) {
				score++
			}
		}
		for _, tag := range c.Tags {
			if strings.Contains(queryLower, tag) {
				score += 5
			}
		}

		if score > 0 {
			results = append(results, Result{Chunk: c, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// ByID returns the chunk with the given id.
func (b *Base) ByID(id string) (Chunk, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return b.chunks[i], true
}

// ByCategory returns all chunks in a category, in corpus order.
func (b *Base) ByCategory(category string) []Chunk {
	var out []Chunk
	for _, c := range b.chunks {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of chunks in the corpus.
func (b *Base) Len() int {
	return len(b.chunks)
}

// Stats returns chunk counts per category.
func (b *Base) Stats() map[string]int {
	out := make(map[string]int)
	for _, c := range b.chunks {
		out[c.Category]++
	}
	return out
}
