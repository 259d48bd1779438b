package visualize

import (
	"image/color"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/maskviz-mcp/internal/config"
	"github.com/ironsheep/maskviz-mcp/internal/imaging"
)

// Renderer draws figures with shared settings, a logger and a random
// source.
type Renderer struct {
	logger *zap.Logger
	cfg    config.Render

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRenderer creates a Renderer. A nil logger discards logs; a nil rng is
// replaced by a time-seeded source. A zero cfg means config.Default; any
// other cfg is used as given, so an explicit zero alpha stays zero.
func NewRenderer(logger *zap.Logger, cfg config.Render, rng *rand.Rand) *Renderer {
	if cfg == (config.Render{}) {
		cfg = config.Default().Render
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Renderer{logger: logger, cfg: cfg, rng: rng}
}

// RandomColors returns n bright, well separated colors in random order.
func (r *Renderer) RandomColors(n int) []color.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return imaging.RandomColors(n, true, r.rng)
}

func (r *Renderer) randomColor() color.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return imaging.RandomColor(r.rng)
}

// sample returns limit distinct indices from [0, n) in random order, or all
// of them in order when n <= limit.
func (r *Renderer) sample(n, limit int) []int {
	if n <= limit {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = i
		}
		return ids
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Perm(n)[:limit]
}

func (r *Renderer) maskAlpha() float64 {
	return r.cfg.MaskAlpha
}

func (r *Renderer) lineWidth() float64 {
	if r.cfg.BoxLineWidth <= 0 {
		return 2
	}
	return r.cfg.BoxLineWidth
}
