// Package server implements the MCP (Model Context Protocol) server for
// Set-of-Mark screenshot annotation.
//
// This package provides a JSON-RPC 2.0 server that exposes the som pipeline
// to MCP clients, so an agent can ask "what can I click on this screen"
// and get back numbered regions plus a marked image to reason over.
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
//   - som_mark: text recognition plus contour detection, numbered and drawn
//   - som_ocr: text elements only
//   - som_detect_contours: contour elements only, no OCR engine needed
//   - som_info: OCR engine status and default detection options
//   - image_info: dimensions, format, file size and perceptual hash
//
// The pipeline tools take the image as either "path" or "image_base64".
// The marked image is returned as an MCP image content entry unless
// return_image is false or output_path is given.
//
// # Image Caching
//
// Images loaded by path are cached for the lifetime of the process, so
// repeated calls against the same screenshot decode it once. Pass
// "reload": true when a path has been overwritten by a new capture.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for bad arguments, unreadable images and invalid options
//   - code: -32000 for any other tool failure (e.g. no OCR engine)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(pipeline, server.WithLogger(log), server.WithVersion(version))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
