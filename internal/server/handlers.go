package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ironsheep/leaf-label-tools/internal/imaging"
	"github.com/ironsheep/leaf-label-tools/internal/label"
	"github.com/ironsheep/leaf-label-tools/internal/segment"
)

var (
	errNoFolder = errors.New("no folder is open; call open_folder first")
	errNoImages = errors.New("the open folder has no images")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "open_folder", "create_label").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warning(component, "tool call failed", map[string]interface{}{
			"tool":  params.Name,
			"error": err.Error(),
		})
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "open_folder":
		return s.handleOpenFolder(args)
	case "navigate":
		return s.handleNavigate(args)
	case "resolve_class":
		return s.handleResolveClass(args)
	case "segment_image":
		return s.handleSegmentImage(args)
	case "create_label":
		return s.handleCreateLabel(args)
	case "label_all":
		return s.handleLabelAll(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// filters returns the stages named in a tool call, or the server defaults
// when the call names none.
func (s *Server) filters(names []string) (segment.Config, error) {
	if names == nil {
		return s.opts.Filters, nil
	}
	return segment.ParseConfig(names)
}

// imagePath returns path, or the current image of the open folder when path
// is empty. An explicit path that belongs to the open folder becomes its
// current image.
func (s *Server) imagePath(path string) (string, error) {
	if path != "" {
		path = filepath.Clean(path)
		if s.catalog != nil {
			s.catalog.Seek(path)
		}
		return path, nil
	}
	if s.catalog == nil {
		return "", errNoFolder
	}
	current, ok := s.catalog.Current()
	if !ok {
		return "", errNoImages
	}
	return current, nil
}

// rootFor returns the dataset root whose class folders number the classes of
// path: the open folder's root, or the root resolved from the image's folder
// when no folder is open.
func (s *Server) rootFor(path string) (string, error) {
	if s.catalog != nil {
		return s.catalog.Root(), nil
	}
	return imaging.DatasetRoot(path)
}

func (s *Server) outputDir(dir string) string {
	if dir != "" {
		return dir
	}
	return s.opts.OutputDir
}

// === Dataset Navigation Handlers ===

type openFolderArgs struct {
	Path string `json:"path"`
}

type folderResult struct {
	Root    string   `json:"root"`
	Classes []string `json:"classes"`
	Images  int      `json:"images"`
	Current string   `json:"current,omitempty"`
	Class   string   `json:"class,omitempty"`
}

func folderState(c *imaging.Catalog) *folderResult {
	res := &folderResult{
		Root:    c.Root(),
		Classes: c.Classes(),
		Images:  c.Len(),
	}
	if current, ok := c.Current(); ok {
		res.Current = current
		res.Class = imaging.ClassOf(current)
	}
	return res
}

func (s *Server) handleOpenFolder(args json.RawMessage) (interface{}, error) {
	var a openFolderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	catalog, err := imaging.OpenFolder(a.Path)
	if err != nil {
		return nil, err
	}
	s.catalog = catalog
	s.cache.Clear()

	s.log.Info(component, "folder opened", map[string]interface{}{
		"root":    catalog.Root(),
		"images":  catalog.Len(),
		"classes": len(catalog.Classes()),
	})
	return folderState(catalog), nil
}

type navigateArgs struct {
	Direction string `json:"direction"`
}

func (s *Server) handleNavigate(args json.RawMessage) (interface{}, error) {
	var a navigateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return nil, errNoFolder
	}

	var ok bool
	switch a.Direction {
	case "", "current":
		_, ok = s.catalog.Current()
	case "next":
		_, ok = s.catalog.Next()
	case "prev", "previous":
		_, ok = s.catalog.Prev()
	default:
		return nil, fmt.Errorf("unknown direction %q (valid: next, prev, current)", a.Direction)
	}
	if !ok {
		return nil, errNoImages
	}
	return folderState(s.catalog), nil
}

type resolveClassArgs struct {
	Class string `json:"class"`
	Root  string `json:"root"`
}

type resolveClassResult struct {
	Class   string   `json:"class"`
	ClassID int      `json:"class_id"`
	Known   bool     `json:"known"`
	Classes []string `json:"classes"`
}

func (s *Server) handleResolveClass(args json.RawMessage) (interface{}, error) {
	var a resolveClassArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	root := a.Root
	if root == "" {
		if s.catalog == nil {
			return nil, errNoFolder
		}
		root = s.catalog.Root()
	}

	classes, err := label.LoadClasses(root)
	if err != nil {
		return nil, err
	}
	return &resolveClassResult{
		Class:   a.Class,
		ClassID: classes.ID(a.Class),
		Known:   classes.Contains(a.Class),
		Classes: classes,
	}, nil
}

// === Segmentation and Labeling Handlers ===

type segmentImageArgs struct {
	Path    string   `json:"path"`
	Filters []string `json:"filters"`
	Preview *bool    `json:"preview"`
}

type segmentImageResult struct {
	Path    string                 `json:"path"`
	Filters []segment.StageName    `json:"filters"`
	Width   int                    `json:"width"`
	Height  int                    `json:"height"`
	Steps   []segment.StepReport   `json:"steps"`
	Mask    imaging.MaskStats      `json:"mask"`
	Preview *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handleSegmentImage(args json.RawMessage) (interface{}, error) {
	var a segmentImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.imagePath(a.Path)
	if err != nil {
		return nil, err
	}
	cfg, err := s.filters(a.Filters)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.SegmentFile(path, cfg)
	if err != nil {
		return nil, err
	}

	out := &segmentImageResult{
		Path:    path,
		Filters: cfg.Stages(),
		Width:   res.Processed.Width(),
		Height:  res.Processed.Height(),
		Steps:   res.Steps,
		Mask:    imaging.MeasureMask(imaging.Foreground(res.Processed)),
	}
	if out.Steps == nil {
		out.Steps = []segment.StepReport{}
	}

	if a.Preview == nil || *a.Preview {
		preview, err := imaging.Preview(res.Processed, imaging.PreviewWidth, imaging.PreviewHeight)
		if err != nil {
			return nil, err
		}
		out.Preview = preview
	}
	return out, nil
}

type createLabelArgs struct {
	Path      string   `json:"path"`
	Class     string   `json:"class"`
	Filters   []string `json:"filters"`
	OutputDir string   `json:"output_dir"`
}

func (s *Server) handleCreateLabel(args json.RawMessage) (interface{}, error) {
	var a createLabelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.imagePath(a.Path)
	if err != nil {
		return nil, err
	}
	cfg, err := s.filters(a.Filters)
	if err != nil {
		return nil, err
	}

	class := a.Class
	if class == "" {
		class = imaging.ClassOf(path)
	}
	root, err := s.rootFor(path)
	if err != nil {
		return nil, err
	}

	return s.labeler.LabelImage(label.LabelRequest{
		ImagePath: path,
		Root:      root,
		Class:     class,
		OutputDir: s.outputDir(a.OutputDir),
		Filters:   cfg,
	})
}

type labelAllArgs struct {
	Class     string   `json:"class"`
	Filters   []string `json:"filters"`
	OutputDir string   `json:"output_dir"`
}

func (s *Server) handleLabelAll(args json.RawMessage) (interface{}, error) {
	var a labelAllArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if s.catalog == nil {
		return nil, errNoFolder
	}
	cfg, err := s.filters(a.Filters)
	if err != nil {
		return nil, err
	}

	class := a.Class
	if class == "" {
		current, ok := s.catalog.Current()
		if !ok {
			return nil, errNoImages
		}
		class = imaging.ClassOf(current)
	}

	return s.batcher.Run(s.ctx, label.BatchRequest{
		Root:      s.catalog.Root(),
		Class:     class,
		Paths:     s.catalog.Paths(),
		OutputDir: s.outputDir(a.OutputDir),
		Filters:   cfg,
	})
}
