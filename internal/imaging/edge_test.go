package imaging

import (
	"image"
	"image/color"
	"sync"
	"testing"
)

// createEdgeTestImage returns a white image with a filled black rectangle
// covering the middle half.
func createEdgeTestImage(width, height int) *image.RGBA {
	img := createInMemoryImage(width, height, color.RGBA{255, 255, 255, 255})
	for y := height / 4; y < height*3/4; y++ {
		for x := width / 4; x < width*3/4; x++ {
			img.Set(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	return img
}

func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeGradient_Dimensions(t *testing.T) {
	g := ComputeGradient(createEdgeTestImage(100, 60))
	if g.Width != 100 || g.Height != 60 {
		t.Errorf("dimensions: got %dx%d, want 100x60", g.Width, g.Height)
	}
}

func TestEdges_Rectangle(t *testing.T) {
	img := createEdgeTestImage(100, 100)
	g := ComputeGradient(img)

	edges := g.Edges(50, 150)
	if edges.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("mask bounds: got %v", edges.Bounds())
	}

	if CountNonZero(edges) == 0 {
		t.Fatal("expected edge pixels around the rectangle")
	}

	// Edges stay near the rectangle outline at x/y = 25 and 75
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if edges.GrayAt(x, y).Y == 0 {
				continue
			}
			nearX := abs(x-25) <= 2 || abs(x-75) <= 2
			nearY := abs(y-25) <= 2 || abs(y-75) <= 2
			if !nearX && !nearY {
				t.Fatalf("unexpected edge pixel at (%d,%d)", x, y)
			}
		}
	}

	// The interior and the far background carry no edges
	if edges.GrayAt(50, 50).Y != 0 {
		t.Error("interior pixel marked as edge")
	}
	if edges.GrayAt(5, 5).Y != 0 {
		t.Error("background pixel marked as edge")
	}
}

func TestEdges_ThresholdOrdering(t *testing.T) {
	g := ComputeGradient(createEdgeTestImage(80, 80))

	tests := []struct {
		name      string
		low, high int
	}{
		{"low thresholds", 30, 100},
		{"medium thresholds", 50, 150},
		{"high thresholds", 100, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CountNonZero(g.Edges(tt.low, tt.high)) == 0 {
				t.Error("expected edges for a black-on-white rectangle")
			}
		})
	}

	// Swapped thresholds behave like the ordered pair
	a := g.Edges(50, 150)
	b := g.Edges(150, 50)
	if CountNonZero(a) != CountNonZero(b) {
		t.Errorf("swapped thresholds: got %d and %d edge pixels", CountNonZero(a), CountNonZero(b))
	}
}

func TestEdges_UniformImage(t *testing.T) {
	img := createInMemoryImage(50, 50, color.RGBA{128, 128, 128, 255})
	edges := ComputeGradient(img).Edges(30, 100)
	if n := CountNonZero(edges); n != 0 {
		t.Errorf("uniform image: got %d edge pixels, want 0", n)
	}
}

func TestEdges_TinyImage(t *testing.T) {
	img := createInMemoryImage(2, 2, color.RGBA{0, 0, 0, 255})
	edges := ComputeGradient(img).Edges(30, 100)
	if edges.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("mask bounds: got %v, want 2x2", edges.Bounds())
	}
	if CountNonZero(edges) != 0 {
		t.Error("tiny image should not produce edges")
	}
}

func TestEdges_Concurrent(t *testing.T) {
	g := ComputeGradient(createEdgeTestImage(60, 60))
	want := CountNonZero(g.Edges(50, 150))

	var wg sync.WaitGroup
	counts := make([]int, 8)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i] = CountNonZero(g.Edges(50, 150))
		}(i)
	}
	wg.Wait()

	for i, got := range counts {
		if got != want {
			t.Errorf("goroutine %d: got %d edge pixels, want %d", i, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.val, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
