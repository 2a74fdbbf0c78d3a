package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		ToolMark,
		ToolOCR,
		ToolDetectContours,
		ToolInfo,
		ToolImageInfo,
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_ImageInput(t *testing.T) {
	for _, name := range []string{ToolMark, ToolOCR, ToolDetectContours} {
		tool := findTool(t, name)
		props := tool.InputSchema["properties"].(map[string]interface{})
		for _, p := range []string{"path", "image_base64", "return_image", "image_format", "output_path"} {
			if _, ok := props[p]; !ok {
				t.Errorf("%s: missing property %s", name, p)
			}
		}
	}
}

func TestToolDefinitions_DetectionOptions(t *testing.T) {
	for _, name := range []string{ToolMark, ToolDetectContours} {
		props := findTool(t, name).InputSchema["properties"].(map[string]interface{})
		for _, p := range []string{"min_area", "max_area", "iou_threshold", "edge_thresholds", "suppress_text_overlap"} {
			if _, ok := props[p]; !ok {
				t.Errorf("%s: missing property %s", name, p)
			}
		}
	}

	// Text-only recognition has no contour knobs
	props := findTool(t, ToolOCR).InputSchema["properties"].(map[string]interface{})
	if _, ok := props["min_area"]; ok {
		t.Errorf("%s should not expose detection options", ToolOCR)
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	required, ok := findTool(t, ToolImageInfo).InputSchema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "path" {
		t.Errorf("image_info required: got %v, want [path]", required)
	}
}

func findTool(t *testing.T, name string) Tool {
	t.Helper()
	for _, tool := range GetToolDefinitions() {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return Tool{}
}
