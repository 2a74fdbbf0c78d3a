package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Tool names.
const (
	ToolMark           = "som_mark"
	ToolOCR            = "som_ocr"
	ToolDetectContours = "som_detect_contours"
	ToolInfo           = "som_info"
	ToolImageInfo      = "image_info"
)

// imageInputProperties describes the two ways a tool receives an image.
// Exactly one of them must be given.
func imageInputProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the screenshot file (PNG, JPEG or GIF)",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image bytes, optionally as a data: URL. Use instead of path",
		},
		"reload": map[string]interface{}{
			"type":        "boolean",
			"description": "Re-read path from disk instead of using the cached decode. Default false",
		},
	}
}

// detectionProperties describes the contour detection tuning knobs. Every
// one is optional; unset values use the server defaults.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"min_area": map[string]interface{}{
			"type":        "integer",
			"description": "Smallest accepted box area in pixels (exclusive). Default 500",
		},
		"max_area": map[string]interface{}{
			"type":        "integer",
			"description": "Largest accepted box area in pixels (exclusive). Default 50000",
		},
		"min_side": map[string]interface{}{
			"type":        "integer",
			"description": "Boxes narrower or shorter than this are rejected. Default 15",
		},
		"min_aspect_ratio": map[string]interface{}{
			"type":        "number",
			"description": "Smallest accepted width/height ratio. Default 0.2",
		},
		"max_aspect_ratio": map[string]interface{}{
			"type":        "number",
			"description": "Largest accepted width/height ratio. Default 5",
		},
		"fill_ratio_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Minimum contour area / box area for the saturation pass. Default 0.5",
		},
		"saturation_threshold": map[string]interface{}{
			"type":        "integer",
			"description": "HSV saturation (0-255) above which a pixel is colored. Default 80",
		},
		"iou_threshold": map[string]interface{}{
			"type":        "number",
			"description": "A candidate overlapping an accepted box with IoU above this is a duplicate. Default 0.5",
		},
		"edge_thresholds": map[string]interface{}{
			"type":        "array",
			"description": "Canny [low, high] threshold pairs, one edge pass each. Default [[30,100],[50,150],[100,200]]",
			"items": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "integer"},
				"minItems": 2,
				"maxItems": 2,
			},
		},
		"dilate_radius": map[string]interface{}{
			"type":        "number",
			"description": "Dilation radius bridging gaps in edge masks. Default 1",
		},
		"close_radius": map[string]interface{}{
			"type":        "number",
			"description": "Closing radius filling holes in the saturation mask. Default 2",
		},
		"suppress_text_overlap": map[string]interface{}{
			"type":        "boolean",
			"description": "Drop contours that mostly cover recognized text. Default false",
		},
		"text_overlap_threshold": map[string]interface{}{
			"type":        "number",
			"description": "Fraction of a contour covered by text above which it is dropped. Default 0.3",
		},
	}
}

// outputProperties describes the result switches shared by the pipeline
// tools.
func outputProperties() map[string]interface{} {
	return map[string]interface{}{
		"return_image": map[string]interface{}{
			"type":        "boolean",
			"description": "Include the marked image in the result. Default true",
		},
		"image_format": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"png", "jpeg"},
			"description": "Encoding of the marked image. Default png",
		},
		"output_path": map[string]interface{}{
			"type":        "string",
			"description": "Write the marked image to this file instead of returning it inline",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: ToolMark,
			Description: "Set-of-Mark a UI screenshot: find text regions and likely interactive elements " +
				"(buttons, icons, input fields), number them, and draw numbered boxes on a copy of the image. " +
				"Returns the element list (id, type, box [x1,y1,x2,y2], text, confidence) and the marked image. " +
				"Text elements come first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(imageInputProperties(), detectionProperties(), outputProperties(), map[string]interface{}{
					"detect_contours": map[string]interface{}{
						"type":        "boolean",
						"description": "Run the contour detector. Default true",
					},
				}),
			},
		},
		{
			Name:        ToolOCR,
			Description: "Recognize text in a screenshot. Returns text elements only, numbered in reading order of the recognizer.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": merge(imageInputProperties(), outputProperties()),
			},
		},
		{
			Name:        ToolDetectContours,
			Description: "Find likely interactive UI elements by contour analysis, without text recognition. Works when no OCR engine is installed.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": merge(imageInputProperties(), detectionProperties(), outputProperties()),
			},
		},
		{
			Name:        ToolInfo,
			Description: "Report the OCR engine status (availability, version, languages) and the default detection options.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        ToolImageInfo,
			Description: "Get image dimensions, format, file size and perceptual hash. With compare_path, also report how different two screenshots are (hash distance 0 = same screen).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"compare_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional second image to compare against",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the tool catalog.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
