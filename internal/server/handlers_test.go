package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var (
	white    = color.NRGBA{255, 255, 255, 255}
	darkLeaf = color.NRGBA{40, 90, 40, 255}
)

// createLeafFile writes a 100×100 PNG with a size×size leaf square centered
// on a white background.
func createLeafFile(t *testing.T, path string, size int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	lo := (100 - size) / 2
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := white
			if x >= lo && x < lo+size && y >= lo && y < lo+size {
				c = darkLeaf
			}
			img.Set(x, y, c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

// createDataset builds root/{Birch,Maple}/ with two Maple leaves and one
// Birch leaf.
func createDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	createLeafFile(t, filepath.Join(root, "Birch", "b1.png"), 40)
	createLeafFile(t, filepath.Join(root, "Maple", "m1.png"), 40)
	createLeafFile(t, filepath.Join(root, "Maple", "m2.png"), 30)
	return root
}

// callTool issues a tools/call request and decodes the text content into out.
// It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("decode tool result: %v", err)
		}
	}
	return nil
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`"oops"`)})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	mcpErr := callTool(t, s, "paint_leaf", nil, nil)

	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %+v", mcpErr)
	}
	if !strings.Contains(mcpErr.Data.(string), "unknown tool") {
		t.Errorf("unexpected error data: %v", mcpErr.Data)
	}
}

func TestOpenFolderAndNavigate(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)

	var folder folderResult
	if err := callTool(t, s, "open_folder", map[string]interface{}{"path": filepath.Join(root, "Maple")}, &folder); err != nil {
		t.Fatalf("open_folder: %+v", err)
	}
	if folder.Root != root {
		t.Errorf("root: got %s, want %s", folder.Root, root)
	}
	if len(folder.Classes) != 2 || folder.Classes[0] != "Birch" {
		t.Errorf("classes: got %v", folder.Classes)
	}
	if folder.Images != 3 {
		t.Errorf("images: got %d, want 3", folder.Images)
	}
	if filepath.Base(folder.Current) != "b1.png" || folder.Class != "Birch" {
		t.Errorf("current: got %s (%s)", folder.Current, folder.Class)
	}

	steps := []struct {
		direction string
		want      string
	}{
		{"next", "m1.png"},
		{"next", "m2.png"},
		{"next", "b1.png"},
		{"prev", "m2.png"},
		{"current", "m2.png"},
	}
	for _, step := range steps {
		var got folderResult
		if err := callTool(t, s, "navigate", map[string]interface{}{"direction": step.direction}, &got); err != nil {
			t.Fatalf("navigate %s: %+v", step.direction, err)
		}
		if filepath.Base(got.Current) != step.want {
			t.Errorf("navigate %s: got %s, want %s", step.direction, filepath.Base(got.Current), step.want)
		}
	}

	if err := callTool(t, s, "navigate", map[string]interface{}{"direction": "sideways"}, nil); err == nil {
		t.Error("expected an error for an unknown direction")
	}
}

func TestOpenFolder_Errors(t *testing.T) {
	s := newTestServer(t)

	if err := callTool(t, s, "open_folder", map[string]interface{}{}, nil); err == nil {
		t.Error("expected an error for a missing path")
	}
	if err := callTool(t, s, "open_folder", map[string]interface{}{"path": filepath.Join(t.TempDir(), "nope")}, nil); err == nil {
		t.Error("expected an error for a missing folder")
	}
}

func TestResolveClass(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)

	if err := callTool(t, s, "resolve_class", map[string]interface{}{"class": "Maple"}, nil); err == nil {
		t.Error("expected an error without an open folder or root")
	}

	var got resolveClassResult
	if err := callTool(t, s, "resolve_class", map[string]interface{}{"class": "Maple", "root": root}, &got); err != nil {
		t.Fatalf("resolve_class: %+v", err)
	}
	if got.ClassID != 1 || !got.Known {
		t.Errorf("Maple: got id %d known %v", got.ClassID, got.Known)
	}

	callTool(t, s, "open_folder", map[string]interface{}{"path": root}, nil)
	if err := callTool(t, s, "resolve_class", map[string]interface{}{"class": "Pine"}, &got); err != nil {
		t.Fatalf("resolve_class: %+v", err)
	}
	if got.ClassID != 0 || got.Known {
		t.Errorf("Pine: got id %d known %v", got.ClassID, got.Known)
	}
}

func TestSegmentImage(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)
	path := filepath.Join(root, "Maple", "m1.png")

	var got segmentImageResult
	if err := callTool(t, s, "segment_image", map[string]interface{}{"path": path}, &got); err != nil {
		t.Fatalf("segment_image: %+v", err)
	}

	if len(got.Steps) != 2 || got.Steps[0].Stage != "statistical" || got.Steps[1].Stage != "crop" {
		t.Errorf("steps: got %+v", got.Steps)
	}
	if got.Width < 39 || got.Width > 41 {
		t.Errorf("cropped width: got %d, want about 40", got.Width)
	}
	if got.Mask.Foreground == 0 || got.Mask.Bounds == nil {
		t.Errorf("mask stats: got %+v", got.Mask)
	}
	if got.Preview == nil || got.Preview.MimeType != "image/png" || got.Preview.ImageBase64 == "" {
		t.Fatalf("preview: got %+v", got.Preview)
	}
	if got.Preview.Width != got.Width {
		t.Errorf("small images are not enlarged: preview %d, image %d", got.Preview.Width, got.Width)
	}
}

func TestSegmentImage_Options(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)
	callTool(t, s, "open_folder", map[string]interface{}{"path": root}, nil)

	var got segmentImageResult
	args := map[string]interface{}{"filters": []string{}, "preview": false}
	if err := callTool(t, s, "segment_image", args, &got); err != nil {
		t.Fatalf("segment_image: %+v", err)
	}
	if filepath.Base(got.Path) != "b1.png" {
		t.Errorf("path: got %s, want the current image", got.Path)
	}
	if len(got.Steps) != 0 || got.Width != 100 {
		t.Errorf("no filters should leave the image untouched: %+v", got)
	}
	if got.Preview != nil {
		t.Error("preview should be omitted")
	}

	if err := callTool(t, s, "segment_image", map[string]interface{}{"filters": []string{"sepia"}}, nil); err == nil {
		t.Error("expected an error for an unknown stage")
	}
}

func TestCreateLabel(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)
	out := t.TempDir()
	path := filepath.Join(root, "Maple", "m1.png")

	var got struct {
		LabelPath string `json:"label_path"`
		ClassID   int    `json:"class_id"`
		Points    int    `json:"points"`
		Line      string `json:"line"`
	}
	if err := callTool(t, s, "create_label", map[string]interface{}{"path": path, "output_dir": out}, &got); err != nil {
		t.Fatalf("create_label: %+v", err)
	}

	if got.ClassID != 1 {
		t.Errorf("class id: got %d, want 1", got.ClassID)
	}
	if got.LabelPath != filepath.Join(out, "m1.txt") {
		t.Errorf("label path: got %s", got.LabelPath)
	}
	data, err := os.ReadFile(got.LabelPath)
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(data) != got.Line+"\n" || !strings.HasPrefix(got.Line, "1 ") {
		t.Errorf("label file: got %q, line %q", data, got.Line)
	}
	if got.Points < 4 {
		t.Errorf("points: got %d", got.Points)
	}
}

func TestLabelAll(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)

	if err := callTool(t, s, "label_all", map[string]interface{}{"class": "Maple"}, nil); err == nil {
		t.Error("expected an error without an open folder")
	}

	callTool(t, s, "open_folder", map[string]interface{}{"path": root}, nil)
	callTool(t, s, "navigate", map[string]interface{}{"direction": "next"}, nil)

	var got struct {
		RunID     string `json:"run_id"`
		Class     string `json:"class"`
		ClassID   int    `json:"class_id"`
		OutputDir string `json:"output_dir"`
		Written   []struct {
			LabelPath string `json:"label_path"`
		} `json:"written"`
		Skipped []interface{} `json:"skipped"`
	}
	if err := callTool(t, s, "label_all", map[string]interface{}{}, &got); err != nil {
		t.Fatalf("label_all: %+v", err)
	}

	if got.Class != "Maple" || got.ClassID != 1 {
		t.Errorf("class: got %s (%d)", got.Class, got.ClassID)
	}
	if got.OutputDir != filepath.Join(s.opts.OutputDir, "Maple") {
		t.Errorf("output dir: got %s", got.OutputDir)
	}
	if len(got.Written) != 2 || len(got.Skipped) != 0 {
		t.Fatalf("written %d skipped %d", len(got.Written), len(got.Skipped))
	}
	for _, w := range got.Written {
		if _, err := os.Stat(w.LabelPath); err != nil {
			t.Errorf("label missing: %v", err)
		}
	}

	if err := callTool(t, s, "label_all", map[string]interface{}{"class": "Pine"}, nil); err == nil {
		t.Error("expected an error for a class without a folder")
	}
}

func TestSegmentImage_MovesCursor(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)
	callTool(t, s, "open_folder", map[string]interface{}{"path": root}, nil)

	path := filepath.Join(root, "Maple", "m2.png")
	if err := callTool(t, s, "segment_image", map[string]interface{}{"path": path, "preview": false}, nil); err != nil {
		t.Fatalf("segment_image: %+v", err)
	}

	var got folderResult
	if err := callTool(t, s, "navigate", map[string]interface{}{"direction": "current"}, &got); err != nil {
		t.Fatalf("navigate: %+v", err)
	}
	if got.Current != path || got.Class != "Maple" {
		t.Errorf("current: got %s (%s), want %s", got.Current, got.Class, path)
	}
}

func TestCreateLabel_FlatRootImage(t *testing.T) {
	root := createDataset(t)
	s := newTestServer(t)
	path := filepath.Join(root, "loose.png")
	createLeafFile(t, path, 40)

	var got struct {
		ClassID int    `json:"class_id"`
		Line    string `json:"line"`
	}
	if err := callTool(t, s, "create_label", map[string]interface{}{"path": path}, &got); err != nil {
		t.Fatalf("create_label: %+v", err)
	}
	if got.ClassID != 0 || !strings.HasPrefix(got.Line, "0 ") {
		t.Errorf("an image outside every class folder should get id 0, got %d (%q)", got.ClassID, got.Line)
	}
}
