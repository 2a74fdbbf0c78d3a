package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/ocr-som/internal/ocr"
)

func quad(x1, y1, x2, y2 float64) [4]ocr.Point {
	return [4]ocr.Point{{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}}
}

var scenarioRecognizer = ocr.Static{
	{Quad: quad(20, 20, 120, 50), Text: "Hello", Confidence: 0.95},
	{Quad: quad(200, 20, 300, 50), Text: "World", Confidence: 0.9},
}

// createScenarioImage draws a 2 px black outline at (40,120)-(140,160) on
// a white 400x200 canvas.
func createScenarioImage() *image.RGBA {
	img := createSolidImage(400, 200, color.White)
	for y := 120; y < 160; y++ {
		for x := 40; x < 140; x++ {
			if x < 42 || x >= 138 || y < 122 || y >= 158 {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func createSolidImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encodePNG(t, img), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// callTool invokes a tool through the tools/call handler.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("Failed to marshal params: %v", err)
	}
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params}
	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("tools/call returned no response")
	}
	return resp
}

func content(t *testing.T, resp *MCPResponse) []map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	return resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
}

func decodeText(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	text := content(t, resp)[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("Failed to decode tool result %q: %v", text, err)
	}
}

func wantErrorCode(t *testing.T, resp *MCPResponse, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error code %d, got result %+v", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("error code: got %d, want %d (%v)", resp.Error.Code, code, resp.Error.Data)
	}
}

type testElement struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Box  [4]int `json:"box"`
	Text string `json:"text"`
}

type testRunResult struct {
	RunID        string        `json:"run_id"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Count        int           `json:"count"`
	TextCount    int           `json:"text_count"`
	ContourCount int           `json:"contour_count"`
	Elements     []testElement `json:"elements"`
	MimeType     string        `json:"mime_type"`
	OutputPath   string        `json:"output_path"`
}

func TestToolsCall_MarkByPath(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	path := writePNG(t, t.TempDir(), "screen.png", createScenarioImage())

	resp := callTool(t, s, ToolMark, map[string]interface{}{"path": path})
	entries := content(t, resp)
	if len(entries) != 2 {
		t.Fatalf("content entries: got %d, want 2 (text and image)", len(entries))
	}

	var res testRunResult
	decodeText(t, resp, &res)
	if res.Width != 400 || res.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 400x200", res.Width, res.Height)
	}
	if res.Count != 3 || res.TextCount != 2 || res.ContourCount != 1 {
		t.Fatalf("counts: got %d (%d text, %d contour), want 3 (2, 1)", res.Count, res.TextCount, res.ContourCount)
	}
	if res.RunID == "" {
		t.Error("run_id should be set")
	}
	for i, e := range res.Elements {
		if e.ID != i {
			t.Errorf("element %d id: got %d", i, e.ID)
		}
	}
	if res.Elements[0].Text != "Hello" || res.Elements[1].Text != "World" {
		t.Errorf("text elements: got %q, %q", res.Elements[0].Text, res.Elements[1].Text)
	}
	if res.Elements[2].Type != "contour" {
		t.Errorf("element 2 type: got %s, want contour", res.Elements[2].Type)
	}

	img := entries[1]
	if img["type"] != "image" || img["mimeType"] != "image/png" {
		t.Errorf("image entry: got type %v mime %v", img["type"], img["mimeType"])
	}
	data, err := base64.StdEncoding.DecodeString(img["data"].(string))
	if err != nil {
		t.Fatalf("image data is not base64: %v", err)
	}
	marked, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("image data is not a PNG: %v", err)
	}
	if marked.Bounds() != image.Rect(0, 0, 400, 200) {
		t.Errorf("marked bounds: got %v", marked.Bounds())
	}
}

func TestToolsCall_MarkByBase64(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	data := base64.StdEncoding.EncodeToString(encodePNG(t, createScenarioImage()))

	for name, input := range map[string]string{
		"plain":    data,
		"data url": "data:image/png;base64," + data,
	} {
		t.Run(name, func(t *testing.T) {
			var res testRunResult
			decodeText(t, callTool(t, s, ToolMark, map[string]interface{}{"image_base64": input}), &res)
			if res.Count != 3 {
				t.Errorf("count: got %d, want 3", res.Count)
			}
		})
	}
}

func TestToolsCall_InvalidInput(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	path := writePNG(t, t.TempDir(), "screen.png", createScenarioImage())

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no image", map[string]interface{}{}},
		{"both inputs", map[string]interface{}{"path": path, "image_base64": "aGk="}},
		{"missing file", map[string]interface{}{"path": "/nonexistent/screen.png"}},
		{"bad base64", map[string]interface{}{"image_base64": "!!!not base64!!!"}},
		{"not an image", map[string]interface{}{"image_base64": base64.StdEncoding.EncodeToString([]byte("hello"))}},
		{"invalid options", map[string]interface{}{"path": path, "iou_threshold": 3}},
		{"bad format", map[string]interface{}{"path": path, "image_format": "bmp"}},
		{"wrong type", map[string]interface{}{"path": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantErrorCode(t, callTool(t, s, ToolMark, tt.args), codeInvalidParams)
		})
	}
}

func TestToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(nil)
	wantErrorCode(t, callTool(t, s, "image_crop", nil), codeInvalidParams)
}

func TestToolsCall_NoRecognizer(t *testing.T) {
	s := newTestServer(nil)
	path := writePNG(t, t.TempDir(), "screen.png", createScenarioImage())

	// Text recognition fails as a tool failure, not a bad request
	wantErrorCode(t, callTool(t, s, ToolMark, map[string]interface{}{"path": path}), codeToolFailure)
	wantErrorCode(t, callTool(t, s, ToolOCR, map[string]interface{}{"path": path}), codeToolFailure)

	// Contours need no recognizer
	var res testRunResult
	decodeText(t, callTool(t, s, ToolDetectContours, map[string]interface{}{"path": path}), &res)
	if res.Count != 1 || res.ContourCount != 1 || res.TextCount != 0 {
		t.Errorf("contours: got count %d (%d text, %d contour), want 1 contour", res.Count, res.TextCount, res.ContourCount)
	}
}

func TestToolsCall_OCR(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	path := writePNG(t, t.TempDir(), "screen.png", createScenarioImage())

	var res testRunResult
	decodeText(t, callTool(t, s, ToolOCR, map[string]interface{}{"path": path}), &res)
	if res.Count != 2 || res.ContourCount != 0 {
		t.Errorf("ocr: got count %d with %d contours, want 2 text elements", res.Count, res.ContourCount)
	}
}

func TestToolsCall_NoImage(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	path := writePNG(t, t.TempDir(), "screen.png", createScenarioImage())

	resp := callTool(t, s, ToolMark, map[string]interface{}{"path": path, "return_image": false})
	if n := len(content(t, resp)); n != 1 {
		t.Errorf("content entries: got %d, want 1", n)
	}
	var res testRunResult
	decodeText(t, resp, &res)
	if res.MimeType != "" {
		t.Errorf("mime_type should be empty without an image, got %q", res.MimeType)
	}
}

func TestToolsCall_OutputPath(t *testing.T) {
	s := newTestServer(scenarioRecognizer)
	dir := t.TempDir()
	path := writePNG(t, dir, "screen.png", createScenarioImage())
	out := filepath.Join(dir, "screen_marked.jpg")

	resp := callTool(t, s, ToolMark, map[string]interface{}{
		"path":         path,
		"output_path":  out,
		"image_format": "jpeg",
	})
	if n := len(content(t, resp)); n != 1 {
		t.Errorf("content entries: got %d, want 1 when writing to a file", n)
	}

	var res testRunResult
	decodeText(t, resp, &res)
	if res.OutputPath != out {
		t.Errorf("output_path: got %q, want %q", res.OutputPath, out)
	}
	if res.MimeType != "image/jpeg" {
		t.Errorf("mime_type: got %q, want image/jpeg", res.MimeType)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("marked image not written: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("output file is not a JPEG")
	}
}

func TestToolsCall_Reload(t *testing.T) {
	s := newTestServer(nil)
	dir := t.TempDir()
	path := writePNG(t, dir, "screen.png", createSolidImage(50, 40, color.White))

	var first testRunResult
	decodeText(t, callTool(t, s, ToolDetectContours, map[string]interface{}{"path": path}), &first)

	// Overwrite with a capture of a different size
	writePNG(t, dir, "screen.png", createSolidImage(80, 60, color.White))

	var cached testRunResult
	decodeText(t, callTool(t, s, ToolDetectContours, map[string]interface{}{"path": path}), &cached)
	if cached.Width != first.Width {
		t.Errorf("cached width: got %d, want %d", cached.Width, first.Width)
	}

	var reloaded testRunResult
	decodeText(t, callTool(t, s, ToolDetectContours, map[string]interface{}{"path": path, "reload": true}), &reloaded)
	if reloaded.Width != 80 || reloaded.Height != 60 {
		t.Errorf("reloaded dimensions: got %dx%d, want 80x60", reloaded.Width, reloaded.Height)
	}
}

func TestToolsCall_Info(t *testing.T) {
	s := newTestServer(scenarioRecognizer)

	var res struct {
		Name       string `json:"name"`
		Version    string `json:"version"`
		Recognizer struct {
			Available bool   `json:"available"`
			Backend   string `json:"backend"`
		} `json:"recognizer"`
		Defaults struct {
			MinArea        int      `json:"min_area"`
			EdgeThresholds [][2]int `json:"edge_thresholds"`
			ImageFormat    string   `json:"image_format"`
		} `json:"defaults"`
		CachedImages int `json:"cached_images"`
	}
	decodeText(t, callTool(t, s, ToolInfo, nil), &res)

	if res.Name != Name || res.Version != "1.2.3" {
		t.Errorf("name/version: got %s %s", res.Name, res.Version)
	}
	if !res.Recognizer.Available {
		t.Error("static recognizer should be reported available")
	}
	if res.Defaults.MinArea == 0 || len(res.Defaults.EdgeThresholds) == 0 {
		t.Errorf("defaults should be filled in, got %+v", res.Defaults)
	}
	if res.Defaults.ImageFormat != "png" {
		t.Errorf("default image_format: got %q, want png", res.Defaults.ImageFormat)
	}
}

func TestToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(nil)
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", createScenarioImage())
	b := writePNG(t, dir, "b.png", createScenarioImage())

	var res struct {
		Width          int    `json:"width"`
		Height         int    `json:"height"`
		Format         string `json:"format"`
		FileSizeBytes  int64  `json:"file_size_bytes"`
		PerceptualHash string `json:"perceptual_hash"`
		ComparePath    string `json:"compare_path"`
		HashDistance   *int   `json:"hash_distance"`
	}
	decodeText(t, callTool(t, s, ToolImageInfo, map[string]interface{}{"path": a, "compare_path": b}), &res)

	if res.Width != 400 || res.Height != 200 || res.Format != "png" {
		t.Errorf("info: got %dx%d %s", res.Width, res.Height, res.Format)
	}
	if res.FileSizeBytes <= 0 {
		t.Errorf("file_size_bytes: got %d", res.FileSizeBytes)
	}
	if !strings.HasPrefix(res.PerceptualHash, "p:") {
		t.Errorf("perceptual_hash: got %q", res.PerceptualHash)
	}
	if res.ComparePath != b {
		t.Errorf("compare_path: got %q, want %q", res.ComparePath, b)
	}
	if res.HashDistance == nil || *res.HashDistance != 0 {
		t.Errorf("hash_distance of identical images: got %v, want 0", res.HashDistance)
	}
}

func TestToolsCall_ImageInfoErrors(t *testing.T) {
	s := newTestServer(nil)
	path := writePNG(t, t.TempDir(), "a.png", createScenarioImage())

	wantErrorCode(t, callTool(t, s, ToolImageInfo, map[string]interface{}{}), codeInvalidParams)
	wantErrorCode(t, callTool(t, s, ToolImageInfo, map[string]interface{}{"path": "/nonexistent.png"}), codeInvalidParams)
	wantErrorCode(t, callTool(t, s, ToolImageInfo, map[string]interface{}{
		"path":         path,
		"compare_path": "/nonexistent.png",
	}), codeInvalidParams)
}

func TestToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(nil)
	req := &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: []byte(`"not an object"`)}
	wantErrorCode(t, s.handleRequest(context.Background(), req), codeInvalidParams)
}

func TestDecodeBase64(t *testing.T) {
	want := []byte("screenshot bytes")
	std := base64.StdEncoding.EncodeToString(want)

	for _, in := range []string{
		std,
		"data:image/png;base64," + std,
		strings.TrimRight(std, "="),
		" " + std + "\n",
	} {
		got, err := decodeBase64(in)
		if err != nil {
			t.Errorf("decodeBase64(%q) failed: %v", in, err)
			continue
		}
		if !bytes.Equal(got, want) {
			t.Errorf("decodeBase64(%q): got %q", in, got)
		}
	}

	if _, err := decodeBase64("%%%"); err == nil {
		t.Error("decodeBase64 should reject invalid input")
	}
}

func ExampleGetToolDefinitions() {
	for _, tool := range GetToolDefinitions() {
		fmt.Println(tool.Name)
	}
	// Output:
	// som_mark
	// som_ocr
	// som_detect_contours
	// som_info
	// image_info
}
