package texstream

import (
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/logger"
)

// Uploader rewrites a live texture slot with freshly decoded pixels.
// The registry satisfies this; tests substitute a recorder.
type Uploader interface {
	RewriteSlot(slot int, data *registry.TextureData, format registry.Format) error
}

type job struct {
	slot int
	path string
	data []byte // when set, the worker skips the file read
}

type result struct {
	slot int
	path string
	data *registry.TextureData
	err  error
}

// Pipeline runs background decode workers feeding a results queue that
// the render thread drains with Collect. Submitting after Close panics.
type Pipeline struct {
	maxTextureSize int

	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []job
	closed bool

	resMu   sync.Mutex
	results []result

	wg sync.WaitGroup

	requested uint64
	completed uint64
	failed    uint64
}

// NewPipeline starts the worker pool. workers below 1 is clamped to 1.
func NewPipeline(workers, maxTextureSize int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{maxTextureSize: maxTextureSize}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	logger.Debug("texture stream started",
		zap.Int("workers", workers),
		zap.Int("max_texture_size", maxTextureSize),
	)
	return p
}

// Submit queues a file for background decode into the given slot.
func (p *Pipeline) Submit(slot int, path string) {
	p.enqueue(job{slot: slot, path: path})
}

// SubmitBytes queues an in-memory image for background decode.
func (p *Pipeline) SubmitBytes(slot int, name string, data []byte) {
	p.enqueue(job{slot: slot, path: name, data: data})
}

func (p *Pipeline) enqueue(j job) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("texstream: submit after Close")
	}
	p.jobs = append(p.jobs, j)
	p.requested++
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.jobs) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.jobs) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		j := p.jobs[0]
		p.jobs = p.jobs[1:]
		p.mu.Unlock()

		r := result{slot: j.slot, path: j.path}
		raw := j.data
		if raw == nil {
			raw, r.err = os.ReadFile(j.path)
		}
		if r.err == nil {
			r.data, r.err = Decode(raw, p.maxTextureSize)
		}

		p.resMu.Lock()
		p.results = append(p.results, r)
		p.resMu.Unlock()
	}
}

// Collect uploads up to maxUploads finished textures through the
// uploader and returns how many it applied. Failed decodes are logged
// and dropped; the slot keeps its previous contents. Render thread
// only, since the uploader touches GL state.
func (p *Pipeline) Collect(up Uploader, maxUploads int) int {
	p.resMu.Lock()
	n := len(p.results)
	if maxUploads >= 0 && n > maxUploads {
		n = maxUploads
	}
	batch := make([]result, n)
	copy(batch, p.results[:n])
	p.results = p.results[n:]
	p.resMu.Unlock()

	applied := 0
	for _, r := range batch {
		if r.err == nil {
			r.err = up.RewriteSlot(r.slot, r.data, registry.FormatRGBA8)
		}
		if r.err != nil {
			p.resMu.Lock()
			p.failed++
			p.resMu.Unlock()
			logger.Warn("texture stream failed",
				zap.String("path", r.path),
				zap.Int("slot", r.slot),
				zap.Error(r.err),
			)
			continue
		}
		p.resMu.Lock()
		p.completed++
		p.resMu.Unlock()
		applied++
	}
	return applied
}

// Progress reports requested, completed and failed job counts.
func (p *Pipeline) Progress() (requested, completed, failed uint64) {
	p.mu.Lock()
	requested = p.requested
	p.mu.Unlock()
	p.resMu.Lock()
	completed = p.completed
	failed = p.failed
	p.resMu.Unlock()
	return requested, completed, failed
}

// Pending reports jobs queued or in flight plus undelivered results.
func (p *Pipeline) Pending() int {
	req, done, failed := p.Progress()
	return int(req - done - failed)
}

// Ratio reports completed/(completed+pending) in [0,1]. An idle
// pipeline reports 1 so progress bars finish. Failed jobs count as
// done; they will never complete.
func (p *Pipeline) Ratio() float32 {
	req, done, failed := p.Progress()
	pending := req - done - failed
	if done+pending == 0 {
		return 1
	}
	return float32(done) / float32(done+pending)
}

// Close drains nothing: queued jobs still finish, then the workers
// exit. Results left uncollected are dropped with the pipeline.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}
