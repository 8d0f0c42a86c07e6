// Package generator produces randomized N-back stimulus pairs.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tuiback/internal/model"
)

// Generator draws stimulus pairs and tracks per-modality history.
type Generator struct {
	rnd     *rand.Rand
	visual  []int
	audio   []string
	letters []string
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return newWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newWithRand(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd, letters: model.Letters}
}

// Next draws the next stimulus pair and computes N-back match flags
// against the history as it stood before this call, then appends the
// new symbols. A match is impossible while the history is shorter
// than nLevel.
func (g *Generator) Next(nLevel int) model.Stimulus {
	pos := g.rnd.Intn(model.GridPositions)
	letter := g.letters[g.rnd.Intn(len(g.letters))]

	s := model.Stimulus{
		VisualPos:   pos,
		AudioLetter: letter,
	}
	if nLevel >= 1 && len(g.visual) >= nLevel {
		s.VisualMatch = g.visual[len(g.visual)-nLevel] == pos
	}
	if nLevel >= 1 && len(g.audio) >= nLevel {
		s.AudioMatch = g.audio[len(g.audio)-nLevel] == letter
	}

	g.visual = append(g.visual, pos)
	g.audio = append(g.audio, letter)
	return s
}

// Reset clears both stimulus histories.
func (g *Generator) Reset() {
	g.visual = g.visual[:0]
	g.audio = g.audio[:0]
}

// Len returns the number of stimuli emitted since the last Reset.
func (g *Generator) Len() int {
	return len(g.visual)
}
