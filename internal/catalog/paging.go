package catalog

import (
	"hash/fnv"
	"math/rand"

	"github.com/google/uuid"

	"github.com/vidbrowse/backend/internal/models"
)

// PageRequest carries the pagination parameters from the HTTP layer.
// Number and Size are 1-based and already validated as positive.
type PageRequest struct {
	Number int
	Size   int
	Random bool
	Seed   string
}

// Page computes one page over the current snapshot. In random mode the
// whole collection is permuted deterministically from the seed before
// the window is cut, so a client can page through a shuffled feed
// without the server holding cursor state. When no seed is supplied one
// is generated and echoed back on the page.
func (i *Index) Page(req PageRequest, maxSize int) models.Page {
	return i.Snapshot().Page(req, maxSize)
}

// Page computes one page over this snapshot; see Index.Page.
func (s *Snapshot) Page(req PageRequest, maxSize int) models.Page {
	if req.Number < 1 {
		req.Number = 1
	}
	if req.Size < 1 {
		req.Size = 1
	}
	if maxSize > 0 && req.Size > maxSize {
		req.Size = maxSize
	}

	videos := s.List()

	page := models.Page{Number: req.Number, Size: req.Size}
	if req.Random {
		seed := req.Seed
		if seed == "" {
			seed = uuid.NewString()
		}
		page.Seed = seed
		shuffle(videos, seed)
	}

	lo := (req.Number - 1) * req.Size
	hi := lo + req.Size
	switch {
	case lo >= len(videos):
		page.Videos = []models.VideoRecord{}
	case hi >= len(videos):
		page.Videos = videos[lo:]
	default:
		page.Videos = videos[lo:hi]
		page.HasMore = true
	}

	return page
}

// shuffle permutes videos in place with a Fisher-Yates pass driven by a
// PRNG seeded from the seed string. Same seed, same collection, same
// permutation.
func shuffle(videos []models.VideoRecord, seed string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	for i := len(videos) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		videos[i], videos[j] = videos[j], videos[i]
	}
}
