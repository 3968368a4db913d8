// Package playlist builds the drive-mode play order: series episodes stay
// contiguous and in story order, finished and (optionally) heard items drop
// out, and the remaining blocks are shuffled.
package playlist

import (
	"math/rand"
	"sort"

	"github.com/samber/lo"

	"github.com/nadav-o/sipurim/internal/catalog"
)

// Options controls filtering during a build.
type Options struct {
	// SkipHeard drops tracks the listener has marked heard.
	SkipHeard bool
}

// Deps supplies the listening state a build consults. Both funcs may be nil,
// which treats every track as unheard and unfinished.
type Deps struct {
	IsHeard  func(id string) bool
	Finished func(id string) bool
}

// BuildOrder produces a fresh play order from the candidate pool. Standalone
// tracks form one-element blocks; each series' surviving episodes form one
// block sorted ascending by publish time. Blocks are permuted uniformly
// (Fisher-Yates) and flattened, so a series always plays through in order
// wherever it lands. A nil rng uses the shared source.
//
// The order must be rebuilt whenever SkipHeard flips or the pool changes;
// positions in the old order have no mapping into the new one.
func BuildOrder(tracks []catalog.Track, opts Options, deps Deps, rng *rand.Rand) []catalog.Track {
	keep := lo.Filter(tracks, func(t catalog.Track, _ int) bool {
		return !dropped(t, opts, deps)
	})

	blocks := groupBlocks(keep)
	shuffleBlocks(blocks, rng)

	return lo.Flatten(blocks)
}

func dropped(t catalog.Track, opts Options, deps Deps) bool {
	if opts.SkipHeard && deps.IsHeard != nil && deps.IsHeard(t.ID) {
		return true
	}
	return deps.Finished != nil && deps.Finished(t.ID)
}

// groupBlocks partitions tracks into shuffle units: singles stand alone,
// series episodes collect into one block ordered by publish time. Block
// discovery order follows first appearance in the input.
func groupBlocks(tracks []catalog.Track) [][]catalog.Track {
	var blocks [][]catalog.Track
	seriesBlock := make(map[string]int)

	for _, t := range tracks {
		sid, ok := t.SeriesID.Get()
		if !ok {
			blocks = append(blocks, []catalog.Track{t})
			continue
		}
		if i, ok := seriesBlock[sid]; ok {
			blocks[i] = append(blocks[i], t)
			continue
		}
		seriesBlock[sid] = len(blocks)
		blocks = append(blocks, []catalog.Track{t})
	}

	for _, i := range seriesBlock {
		sortEpisodes(blocks[i])
	}
	return blocks
}

// sortEpisodes orders a series block ascending by publish time. Episodes
// without a timestamp keep their input position.
func sortEpisodes(block []catalog.Track) {
	sort.SliceStable(block, func(i, j int) bool {
		a, aok := block[i].PublishAt.Get()
		b, bok := block[j].PublishAt.Get()
		if !aok || !bok {
			return false
		}
		return a.Before(b)
	})
}

func shuffleBlocks(blocks [][]catalog.Track, rng *rand.Rand) {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(blocks) - 1; i > 0; i-- {
		j := intn(i + 1)
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
}
