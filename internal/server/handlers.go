package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-som/internal/imaging"
	"github.com/ironsheep/ocr-som/internal/som"
)

// errInvalidArgs marks tool argument errors, reported as -32602.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "som_mark", "image_info").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments jsoniter.RawMessage `json:"arguments"`
}

// imagePayload is implemented by tool results that carry an image to be
// returned as MCP image content next to the JSON text.
type imagePayload interface {
	imageContent() (data []byte, mimeType string)
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [
//	    {"type": "text", "text": "<JSON result>"},
//	    {"type": "image", "data": "<base64>", "mimeType": "image/png"}
//	  ]
//	}
//
// The image entry is present only for results that carry a marked image.
// Argument and input errors return -32602; other failures return -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	log := s.log.WithField("tool", params.Name)
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Warn("tool call failed")
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if p, ok := result.(imagePayload); ok {
		if data, mime := p.imageContent(); len(data) > 0 {
			content = append(content, map[string]interface{}{
				"type":     "image",
				"data":     base64.StdEncoding.EncodeToString(data),
				"mimeType": mime,
			})
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args jsoniter.RawMessage) (interface{}, error) {
	switch name {
	case ToolMark:
		return s.handleRun(ctx, args, som.ModeMark)
	case ToolOCR:
		return s.handleRun(ctx, args, som.ModeText)
	case ToolDetectContours:
		return s.handleRun(ctx, args, som.ModeContours)
	case ToolInfo:
		return s.handleInfo()
	case ToolImageInfo:
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArgs) ||
		errors.Is(err, som.ErrInvalidImage) ||
		errors.Is(err, som.ErrInvalidOptions)
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args jsoniter.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}

// === Image Input ===

type imageArgs struct {
	Path        string `json:"path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Reload      bool   `json:"reload,omitempty"`
}

// loadImage resolves the image argument. Paths go through the cache;
// base64 input is decoded per call.
func (s *Server) loadImage(a imageArgs) (image.Image, error) {
	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return nil, fmt.Errorf("%w: give either path or image_base64, not both", errInvalidArgs)
	case a.Path != "":
		if a.Reload {
			s.cache.Evict(a.Path)
		}
		img, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", som.ErrInvalidImage, err)
		}
		return img, nil
	case a.ImageBase64 != "":
		data, err := decodeBase64(a.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64: %v", som.ErrInvalidImage, err)
		}
		img, err := imaging.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", som.ErrInvalidImage, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: path or image_base64 is required", errInvalidArgs)
	}
}

// decodeBase64 accepts standard base64 with or without a data URL prefix.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// === Pipeline Handlers ===

type runArgs struct {
	imageArgs
	som.Options

	// OutputPath writes the marked image to a file instead of returning
	// it inline.
	OutputPath string `json:"output_path,omitempty"`
}

// runResult is the JSON shape of a pipeline tool result.
type runResult struct {
	*som.Result

	// OutputPath is set when the marked image was written to disk.
	OutputPath string `json:"output_path,omitempty"`

	// ElapsedMS is the pipeline wall time.
	ElapsedMS int64 `json:"elapsed_ms"`
}

func (r runResult) imageContent() ([]byte, string) {
	if r.OutputPath != "" {
		return nil, ""
	}
	return r.AnnotatedImage, r.MimeType
}

func (s *Server) handleRun(ctx context.Context, args jsoniter.RawMessage, mode som.Mode) (interface{}, error) {
	var a runArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadImage(a.imageArgs)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.Run(ctx, img, mode, a.Options)
	if err != nil {
		return nil, err
	}

	out := runResult{Result: res, ElapsedMS: res.Elapsed.Milliseconds()}
	if a.OutputPath != "" && len(res.AnnotatedImage) > 0 {
		if err := os.WriteFile(a.OutputPath, res.AnnotatedImage, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write marked image: %w", err)
		}
		out.OutputPath = a.OutputPath
	}

	s.log.WithFields(logrus.Fields{
		"run_id": res.RunID,
		"count":  res.Count,
	}).Debug("tool run complete")
	return out, nil
}

// === Info Handlers ===

type infoResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	som.Info
	CachedImages int `json:"cached_images"`
}

func (s *Server) handleInfo() (interface{}, error) {
	return infoResult{
		Name:         Name,
		Version:      s.version,
		Info:         s.pipeline.Info(),
		CachedImages: s.cache.Len(),
	}, nil
}

type imageInfoArgs struct {
	Path        string `json:"path"`
	ComparePath string `json:"compare_path,omitempty"`
}

type imageInfoResult struct {
	*imaging.ImageInfo

	// PerceptualHash identifies the visual content, not the bytes.
	PerceptualHash string `json:"perceptual_hash"`

	ComparePath string `json:"compare_path,omitempty"`

	// HashDistance is the Hamming distance to ComparePath's hash.
	HashDistance *int `json:"hash_distance,omitempty"`
}

func (s *Server) handleImageInfo(args jsoniter.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}

	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", som.ErrInvalidImage, err)
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", som.ErrInvalidImage, err)
	}
	hash, err := imaging.PerceptualHash(img)
	if err != nil {
		return nil, err
	}

	out := imageInfoResult{ImageInfo: info, PerceptualHash: hash}
	if a.ComparePath != "" {
		other, err := s.cache.Load(a.ComparePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", som.ErrInvalidImage, err)
		}
		d, err := imaging.HashDistance(img, other)
		if err != nil {
			return nil, err
		}
		out.ComparePath = a.ComparePath
		out.HashDistance = &d
	}
	return out, nil
}
