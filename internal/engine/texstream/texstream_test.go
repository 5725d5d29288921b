package texstream

import (
	"sync"
	"testing"
	"time"

	"github.com/lumen3d/lumen/internal/engine/registry"
)

// makeTGA builds an uncompressed 24-bit bottom-up TGA from RGB rows
// given top-down.
func makeTGA(width, height int, rgb []byte) []byte {
	out := make([]byte, 18, 18+width*height*3)
	out[2] = tgaTrueColor
	out[12] = byte(width)
	out[13] = byte(width >> 8)
	out[14] = byte(height)
	out[15] = byte(height >> 8)
	out[16] = 24

	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			// BGR on disk
			out = append(out, rgb[i+2], rgb[i+1], rgb[i])
		}
	}
	return out
}

func TestDecodeTGAUncompressed(t *testing.T) {
	// 2x1: red, green
	data := makeTGA(2, 1, []byte{255, 0, 0, 0, 255, 0})
	tex, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tex.Width != 2 || tex.Height != 1 {
		t.Fatalf("size %dx%d", tex.Width, tex.Height)
	}
	want := []byte{255, 0, 0, 255, 0, 255, 0, 255}
	for i, w := range want {
		if tex.Pixels[i] != w {
			t.Fatalf("pixel byte %d: got %d want %d (pixels %v)", i, tex.Pixels[i], w, tex.Pixels)
		}
	}
}

func TestDecodeTGARLE(t *testing.T) {
	// 4x1 solid blue as a single run packet.
	data := make([]byte, 18)
	data[2] = tgaTrueColorRLE
	data[12] = 4
	data[14] = 1
	data[16] = 24
	data = append(data, 0x80|3, 255, 0, 0) // run of 4, BGR blue

	tex, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for p := 0; p < 4; p++ {
		if tex.Pixels[p*4+2] != 255 {
			t.Fatalf("pixel %d not blue: %v", p, tex.Pixels[p*4:p*4+4])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}, 0); err == nil {
		t.Error("expected error for short data")
	}
	bad := make([]byte, 18)
	bad[2] = 99
	if _, err := Decode(bad, 0); err == nil {
		t.Error("expected error for unknown image type")
	}
}

// An id-field length pointing past the end of the file must fail as a
// decode error, not a panic: this runs on worker goroutines where a
// panic would take the process down.
func TestDecodeTGATruncatedIDField(t *testing.T) {
	data := makeTGA(1, 1, []byte{255, 255, 255})[:18]
	data[0] = 200 // id field claims 200 bytes that are not there
	if _, err := Decode(data, 0); err == nil {
		t.Error("expected error for truncated id field")
	}

	// A well-formed id field still decodes: the pixel data just sits
	// after it.
	withID := make([]byte, 0, 24)
	withID = append(withID, makeTGA(1, 1, []byte{0, 255, 0})[:18]...)
	withID[0] = 3
	withID = append(withID, 'a', 'b', 'c')
	withID = append(withID, 0, 255, 0) // BGR green
	tex, err := Decode(withID, 0)
	if err != nil {
		t.Fatalf("Decode with id field: %v", err)
	}
	if tex.Pixels[1] != 255 {
		t.Errorf("green channel %d, want 255", tex.Pixels[1])
	}
}

func TestDecodeDownscales(t *testing.T) {
	rgb := make([]byte, 8*4*3)
	data := makeTGA(8, 4, rgb)
	tex, err := Decode(data, 4)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tex.Width != 4 || tex.Height != 2 {
		t.Errorf("downscaled to %dx%d, want 4x2", tex.Width, tex.Height)
	}
}

// fakeUploader records slot rewrites.
type fakeUploader struct {
	mu    sync.Mutex
	slots []int
}

func (f *fakeUploader) RewriteSlot(slot int, data *registry.TextureData, format registry.Format) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots = append(f.slots, slot)
	return nil
}

func waitForResults(t *testing.T, p *Pipeline, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		p.resMu.Lock()
		n := len(p.results)
		p.resMu.Unlock()
		if n >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d results", want)
}

func TestCollectHonorsUploadBudget(t *testing.T) {
	p := NewPipeline(2, 0)
	defer p.Close()

	img := makeTGA(2, 2, make([]byte, 2*2*3))
	for i := 0; i < 5; i++ {
		p.SubmitBytes(10+i, "mem", img)
	}
	waitForResults(t, p, 5)

	up := &fakeUploader{}
	if n := p.Collect(up, 2); n != 2 {
		t.Fatalf("first collect applied %d, want 2", n)
	}
	if n := p.Collect(up, 2); n != 2 {
		t.Fatalf("second collect applied %d, want 2", n)
	}
	if n := p.Collect(up, 2); n != 1 {
		t.Fatalf("third collect applied %d, want 1", n)
	}
	if len(up.slots) != 5 {
		t.Errorf("uploader saw %d rewrites, want 5", len(up.slots))
	}

	req, done, failed := p.Progress()
	if req != 5 || done != 5 || failed != 0 {
		t.Errorf("progress %d/%d/%d, want 5/5/0", req, done, failed)
	}
}

func TestRatioTracksCompletion(t *testing.T) {
	p := NewPipeline(2, 0)
	defer p.Close()

	if r := p.Ratio(); r != 1 {
		t.Fatalf("idle ratio %v, want 1", r)
	}

	img := makeTGA(2, 2, make([]byte, 2*2*3))
	for i := 0; i < 4; i++ {
		p.SubmitBytes(10+i, "mem", img)
	}
	waitForResults(t, p, 4)

	if r := p.Ratio(); r != 0 {
		t.Fatalf("ratio before any collect %v, want 0", r)
	}

	up := &fakeUploader{}
	p.Collect(up, 1)
	if r := p.Ratio(); r != 0.25 {
		t.Fatalf("ratio after one of four %v, want 0.25", r)
	}
	p.Collect(up, -1)
	if r := p.Ratio(); r != 1 {
		t.Fatalf("ratio after full collect %v, want 1", r)
	}

	// Failed decodes leave the ratio at 1: they will never complete.
	p.SubmitBytes(20, "bad", []byte{0, 1})
	waitForResults(t, p, 1)
	p.Collect(up, -1)
	if r := p.Ratio(); r != 1 {
		t.Errorf("ratio with only a failed job %v, want 1", r)
	}
}

func TestCollectDropsFailedDecodes(t *testing.T) {
	p := NewPipeline(1, 0)
	defer p.Close()

	p.SubmitBytes(3, "bad", []byte{0, 1})
	waitForResults(t, p, 1)

	up := &fakeUploader{}
	if n := p.Collect(up, -1); n != 0 {
		t.Fatalf("applied %d, want 0", n)
	}
	if len(up.slots) != 0 {
		t.Errorf("failed decode reached the uploader")
	}
	_, _, failed := p.Progress()
	if failed != 1 {
		t.Errorf("failed count %d, want 1", failed)
	}
}

func TestCloseDrainsWorkers(t *testing.T) {
	p := NewPipeline(2, 0)
	img := makeTGA(1, 1, []byte{1, 2, 3})
	for i := 0; i < 8; i++ {
		p.SubmitBytes(i, "mem", img)
	}
	p.Close() // must not deadlock; queued jobs finish first

	up := &fakeUploader{}
	total := p.Collect(up, -1)
	if total != 8 {
		t.Errorf("collected %d after close, want 8", total)
	}
}
