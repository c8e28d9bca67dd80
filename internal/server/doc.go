// Package server implements the MCP (Model Context Protocol) server for
// imglocate.
//
// The server exposes annotation, search and rendering over JSON-RPC 2.0 so
// MCP-compatible clients can index and query image collections.
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
//   - annotate: Detect objects and write <image>.txt annotation files
//   - search: List images whose annotations contain a label
//   - read_annotations: Return the stored detections of one image
//   - draw_annotations: Render stored detections to <name>.annotated.<ext>
//   - crop_detection: Return one stored detection as a base64 PNG crop
//   - image_info: Get dimensions, format and file size
//
// # Image Caching
//
// Up to WithCacheSize decoded images are kept by path, least recently used
// first out, and decoded again whenever the file on disk changes.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Per-image annotate failures are not tool errors: they are reported in the
// outcome list with status "failed".
//
// # Usage
//
//	srv := server.New(engine, params, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
