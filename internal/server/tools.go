package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var filtersProperty = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "string",
		"enum": []string{"color", "edge", "cluster", "statistical", "alpha", "crop", "all"},
	},
	"description": "Pipeline stages to enable. Stages always run in the order color, edge, cluster, statistical, alpha, crop. "all" enables every stage. Omit to use the server defaults.",
}

var outputDirProperty = map[string]interface{}{
	"type":        "string",
	"description": "Directory for label files. Defaults to the server's output directory.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Dataset navigation
		{
			Name:        "open_folder",
			Description: "Open a dataset folder. A folder with class subfolders is the dataset root; a class folder opens its parent as root. Returns the classes and the first image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the dataset root or a class folder",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "navigate",
			Description: "Move through the images of the open folder. Wraps around at both ends.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"next", "prev", "current"},
						"description": "Which image to move to. Default: current",
					},
				},
			},
		},
		{
			Name:        "resolve_class",
			Description: "Return the numeric id of a class: its index among the sorted class folders. Unknown classes map to 0.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"class": map[string]interface{}{
						"type":        "string",
						"description": "Class folder name",
					},
					"root": map[string]interface{}{
						"type":        "string",
						"description": "Dataset root. Defaults to the open folder's root.",
					},
				},
				"required": []string{"class"},
			},
		},

		// Segmentation and labeling
		{
			Name:        "segment_image",
			Description: "Run the segmentation pipeline on an image and return the per-stage trace, foreground statistics and a PNG preview fitted within 300x300.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image. Defaults to the current image of the open folder.",
					},
					"filters": filtersProperty,
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the base64 PNG preview. Default true",
						"default":     true,
					},
				},
			},
		},
		{
			Name:        "create_label",
			Description: "Segment one image and write its YOLO polygon label to <output_dir>/<image name>.txt.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image. Defaults to the current image of the open folder.",
					},
					"class": map[string]interface{}{
						"type":        "string",
						"description": "Class name. Defaults to the image's folder name.",
					},
					"filters":    filtersProperty,
					"output_dir": outputDirProperty,
				},
			},
		},
		{
			Name:        "label_all",
			Description: "Label every image of one class in the open folder. Labels go to <output_dir>/<class>/. Images that cannot be decoded or have no foreground are skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"class": map[string]interface{}{
						"type":        "string",
						"description": "Class name. Defaults to the class of the current image.",
					},
					"filters":    filtersProperty,
					"output_dir": outputDirProperty,
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
