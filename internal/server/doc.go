// Package server implements the MCP (Model Context Protocol) server for the
// colocalization tools.
//
// This package provides a JSON-RPC 2.0 server that exposes channel matching,
// mask comparison, background rings and the enrichment test through the MCP
// protocol, so an MCP client can run and inspect an analysis one step at a
// time.
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
// File Matching:
//   - coloc_match_channels: Group channel files by identifier
//   - coloc_scan_directory: List a directory by channel tag and match it
//
// Mask Operations:
//   - coloc_find_overlap: Keep reference objects lying on query objects
//   - coloc_build_ring: Background ring around every object
//   - coloc_validate_enrichment: One-tailed t-test of object vs ring
//   - coloc_count_objects: Count connected objects in a size range
//   - coloc_measure_objects: Area, centroid and bounds per object
//
// Field Analysis:
//   - coloc_analyze_field: Both analysis paths for one field of view
//
// Visualization:
//   - coloc_overlay: Masks drawn over an intensity image
//
// Masks are label images (16-bit or 8-bit, 0 is background). Tools that take
// a binary_level argument also accept logical masks, labeled by 8-connected
// components. Parameters a call leaves out fall back to the defaults given
// to New.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server process,
// so a mask used by several calls is read once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Duplicate file identifiers are not tool failures: the match tools report
// them in an errors list next to the groups that did match.
//
// # Usage
//
//	srv := server.New(logger, pipeline.DefaultParams())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
