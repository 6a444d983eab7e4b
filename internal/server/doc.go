// Package server implements the MCP (Model Context Protocol) server for the
// leaf labeling tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Dataset navigation:
//   - open_folder: Open a dataset root or class folder
//   - navigate: Move to the next, previous or current image
//   - resolve_class: Map a class name to its numeric id
//
// Segmentation and labeling:
//   - segment_image: Run the pipeline and return a preview and stage trace
//   - create_label: Write the polygon label of one image
//   - label_all: Label every image of one class
//
// # State
//
// The open folder and its cursor persist between calls. Decoded images are
// cached by path and the cache is cleared whenever a folder is opened.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
