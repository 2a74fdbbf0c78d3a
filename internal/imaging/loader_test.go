package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeScreenshot writes a solid-color PNG into the test's temp directory
// and returns its path.
func writeScreenshot(t *testing.T, name string, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	overwriteScreenshot(t, path, width, height, c)
	return path
}

func overwriteScreenshot(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createInMemoryImage(width, height, c)); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache should be empty, has %d images", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writeScreenshot(t, "screen.png", 100, 100, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b != image.Rect(0, 0, 100, 100) {
		t.Errorf("bounds: got %v, want (0,0)-(100,100)", b)
	}

	// Second load should return the cached decode
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

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for name, path := range map[string]string{
		"missing": "/nonexistent/path/to/image.png",
		"garbage": garbage,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := cache.Load(path)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("error: got %v, want ErrDecode", err)
			}
		})
	}

	if cache.Len() != 0 {
		t.Errorf("failed loads should not be cached, Len = %d", cache.Len())
	}
}

func TestImageCache_Clear(t *testing.T) {
	cache := NewImageCache()
	for _, name := range []string{"a.png", "b.png"} {
		if _, err := cache.Load(writeScreenshot(t, name, 50, 50, color.RGBA{0, 255, 0, 255})); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Clear()

	if count := cache.Len(); count != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", count)
	}
}

// A screenshot path is often overwritten by the next capture. The cache
// keeps serving the old decode until the path is evicted.
func TestImageCache_EvictReloadsOverwrittenFile(t *testing.T) {
	cache := NewImageCache()
	path := writeScreenshot(t, "capture.png", 50, 50, color.RGBA{0, 0, 255, 255})

	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	overwriteScreenshot(t, path, 80, 60, color.RGBA{0, 0, 255, 255})

	stale, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stale.Bounds().Dx() != 50 {
		t.Errorf("cached width: got %d, want 50", stale.Bounds().Dx())
	}

	cache.Evict(path)
	if cache.Len() != 0 {
		t.Errorf("Evict did not remove image, Len = %d", cache.Len())
	}

	fresh, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after Evict failed: %v", err)
	}
	if fresh.Bounds() != image.Rect(0, 0, 80, 60) {
		t.Errorf("reloaded bounds: got %v, want (0,0)-(80,60)", fresh.Bounds())
	}
}

func TestImageCache_Evict_NonExistent(t *testing.T) {
	cache := NewImageCache()
	// Should not panic
	cache.Evict("/nonexistent/path")
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writeScreenshot(t, "shared.png", 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := cache.Load(path)
			if err != nil {
				errs <- err
				return
			}
			if img.Bounds().Dx() != 50 {
				errs <- errors.New("wrong image dimensions")
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := writeScreenshot(t, "info.png", 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}

	if info.Width != 200 {
		t.Errorf("Width: got %d, want 200", info.Width)
	}
	if info.Height != 150 {
		t.Errorf("Height: got %d, want 150", info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	cache := NewImageCache()

	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// A valid PNG regardless of extension
			tmpPath := writeScreenshot(t, "format"+tt.ext, 10, 10, color.Black)

			info, err := LoadImageInfo(cache, tmpPath)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}

			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}

func TestLoadImageInfo_NonExistent(t *testing.T) {
	cache := NewImageCache()
	_, err := LoadImageInfo(cache, "/nonexistent/image.png")
	if err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}

func TestDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	decoded, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(40,30)", decoded.Bounds())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not an image")},
		{"truncated png header", []byte("\x89PNG\r\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode error: got %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecodeFile_Missing(t *testing.T) {
	_, err := DecodeFile("/nonexistent/image.png")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeFile error: got %v, want ErrDecode", err)
	}
}

func TestNormalize_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 60, 50))
	img.Set(10, 20, color.RGBA{255, 0, 0, 255})

	norm := Normalize(img)
	if norm.Bounds() != image.Rect(0, 0, 50, 30) {
		t.Fatalf("bounds: got %v, want (0,0)-(50,30)", norm.Bounds())
	}
	r, _, _, _ := norm.At(0, 0).RGBA()
	if r>>8 != 255 {
		t.Errorf("top-left pixel not preserved: red = %d", r>>8)
	}
}

func TestNormalize_ZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	if Normalize(img) != image.Image(img) {
		t.Error("Normalize should return zero-origin images unchanged")
	}
}
