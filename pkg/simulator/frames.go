package simulator

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Frames serves JPEG payloads round-robin.
type Frames struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
}

// NewFrames serves the given payloads in order.
func NewFrames(payloads ...[]byte) *Frames {
	return &Frames{frames: payloads}
}

// LoadFrames reads every .jpg/.jpeg file in dir, sorted by name.
func LoadFrames(dir string) (*Frames, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("simulator: read frames dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("simulator: no JPEG files in %s", dir)
	}
	sort.Strings(names)

	f := &Frames{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("simulator: read %s: %w", name, err)
		}
		f.frames = append(f.frames, data)
	}
	return f, nil
}

// Next returns the next payload, wrapping around.
func (f *Frames) Next() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	data := f.frames[f.next]
	f.next = (f.next + 1) % len(f.frames)
	return data
}

// Len returns the number of distinct frames.
func (f *Frames) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// SyntheticFrame renders a labelled grey test card as JPEG.
func SyntheticFrame(width, height int, label string) ([]byte, error) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(96, 96, 96, 0), height, width, gocv.MatTypeCV8UC3)
	defer img.Close()

	gocv.PutText(&img, label, image.Pt(10, height/2), gocv.FontHersheySimplex, 0.8,
		color.RGBA{R: 255, G: 255, B: 255, A: 255}, 2)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("simulator: encode test card: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
