package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

// writeTestImage encodes img into dir under name and returns its path.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to save test image: %v", err)
	}
	return path
}

// createGray16 builds a 16-bit image from row-major values.
func createGray16(width, height int, values []uint16) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for i, v := range values {
		img.SetGray16(i%width, i/width, color.Gray16{Y: v})
	}
	return img
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.images == nil {
		t.Fatal("NewImageCache did not initialize images map")
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "C1_f1.png", createGray16(4, 3, make([]uint16, 12)))

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 3 {
		t.Errorf("unexpected dimensions: got %dx%d, want 4x3", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_NonExistent(t *testing.T) {
	cache := NewImageCache()
	if _, err := cache.Load("/nonexistent/path/to/C1_f1.tif"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	cache := NewImageCache()
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := cache.Load(path); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestImageCache_Evict(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", createGray16(2, 2, make([]uint16, 4)))
	b := writeTestImage(t, dir, "b.png", createGray16(2, 2, make([]uint16, 4)))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a, "/nonexistent/path")
	cache.mu.RLock()
	_, aExists := cache.images[a]
	_, bExists := cache.images[b]
	cache.mu.RUnlock()
	if aExists || !bExists {
		t.Errorf("Evict: a cached=%v b cached=%v, want false/true", aExists, bExists)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeTestImage(t, t.TempDir(), "c.png", createGray16(8, 8, make([]uint16, 64)))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
}

func TestLoadLabelMask_RoundTripsSixteenBitLabels(t *testing.T) {
	want, err := LabelMaskFromRows([][]int{
		{0, 0, 300, 300},
		{1, 0, 300, 0},
		{1, 1, 0, 70000 - 65536},
	})
	if err != nil {
		t.Fatalf("LabelMaskFromRows failed: %v", err)
	}

	for _, name := range []string{"mask.png", "mask.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := SaveLabelMask(path, want); err != nil {
				t.Fatalf("SaveLabelMask failed: %v", err)
			}

			got, err := LoadLabelMask(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadLabelMask failed: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("labels changed on round trip: got %v, want %v", got.Pix, want.Pix)
			}
		})
	}
}

func TestSaveLabelMask_RejectsOversizedLabels(t *testing.T) {
	m := NewLabelMask(1, 1)
	m.Set(0, 0, 70000)
	if err := SaveLabelMask(filepath.Join(t.TempDir(), "big.png"), m); err == nil {
		t.Error("SaveLabelMask should reject labels above 65535")
	}
}

func TestLoadIntensityImage_KeepsNativeScale(t *testing.T) {
	path := writeTestImage(t, t.TempDir(), "C3_f1.png", createGray16(2, 1, []uint16{1200, 65535}))

	im, err := LoadIntensityImage(NewImageCache(), path)
	if err != nil {
		t.Fatalf("LoadIntensityImage failed: %v", err)
	}
	if im.At(0, 0) != 1200 || im.At(1, 0) != 65535 {
		t.Errorf("got samples %v, want [1200 65535]", im.Pix)
	}
}

func TestLoadBinaryMask_LabelsComponents(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 6, 3))
	// Two blobs: one diagonal pair (joined under 8-connectivity), one column.
	for _, p := range []Point{{0, 0}, {1, 1}, {4, 0}, {4, 1}, {4, 2}} {
		img.SetGray(p.X, p.Y, color.Gray{Y: 255})
	}
	path := writeTestImage(t, t.TempDir(), "binary.png", img)

	m, err := LoadBinaryMask(NewImageCache(), path, 128)
	if err != nil {
		t.Fatalf("LoadBinaryMask failed: %v", err)
	}
	if m.MaxLabel() != 2 {
		t.Fatalf("MaxLabel: got %d, want 2", m.MaxLabel())
	}
	if m.At(0, 0) != m.At(1, 1) {
		t.Error("diagonal neighbours should share a label")
	}
	if m.At(4, 0) == m.At(0, 0) {
		t.Error("separate blobs should not share a label")
	}
}

func TestIntensityFromImage_ColorKeepsSourceDepth(t *testing.T) {
	values := []uint8{0, 40, 200, 255}
	gray := image.NewGray(image.Rect(0, 0, 4, 1))
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 1))
	pal := make(color.Palette, len(values))
	for i, v := range values {
		pal[i] = color.Gray{Y: v}
	}
	paletted := image.NewPaletted(image.Rect(0, 0, 4, 1), pal)
	rgba64 := image.NewRGBA64(image.Rect(0, 0, 4, 1))
	for x, v := range values {
		gray.SetGray(x, 0, color.Gray{Y: v})
		rgba.SetRGBA(x, 0, color.RGBA{R: v, G: v, B: v, A: 255})
		paletted.SetColorIndex(x, 0, uint8(x))
		rgba64.SetRGBA64(x, 0, color.RGBA64{R: uint16(v) * 257, G: uint16(v) * 257, B: uint16(v) * 257, A: 0xffff})
	}

	tests := []struct {
		name  string
		img   image.Image
		scale float64
	}{
		{"8-bit gray", gray, 1},
		{"8-bit rgba", rgba, 1},
		{"palette", paletted, 1},
		{"16-bit rgba", rgba64, 257},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := IntensityFromImage(tt.img)
			for x, v := range values {
				if want := float64(v) * tt.scale; im.At(x, 0) != want {
					t.Errorf("pixel %d: got %v, want %v", x, im.At(x, 0), want)
				}
			}
		})
	}
}
