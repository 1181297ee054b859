package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/detection"
	"github.com/ironsheep/coloc-tools-mcp/internal/enrichment"
	"github.com/ironsheep/coloc-tools-mcp/internal/imaging"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "coloc_find_overlap").
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
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool call complete", "tool", params.Name, "cached_images", s.cache.Len())

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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads masks and images from cache as needed
//  4. Calls the appropriate channels/detection/enrichment/pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// File Matching
	case "coloc_match_channels":
		return s.handleMatchChannels(args)
	case "coloc_scan_directory":
		return s.handleScanDirectory(args)

	// Mask Operations
	case "coloc_find_overlap":
		return s.handleFindOverlap(args)
	case "coloc_build_ring":
		return s.handleBuildRing(args)
	case "coloc_validate_enrichment":
		return s.handleValidateEnrichment(args)
	case "coloc_count_objects":
		return s.handleCountObjects(args)
	case "coloc_measure_objects":
		return s.handleMeasureObjects(args)

	// Field Analysis
	case "coloc_analyze_field":
		return s.handleAnalyzeField(args)

	// Visualization
	case "coloc_overlay":
		return s.handleOverlay(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadMask reads a label image, or a binary image labeled by connected
// components when level is positive.
func (s *Server) loadMask(path string, level int) (*imaging.LabelMask, error) {
	if path == "" {
		return nil, errors.New("mask path is required")
	}
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("binary_level %d outside 0-255", level)
	}
	if level > 0 {
		return imaging.LoadBinaryMask(s.cache, path, uint8(level))
	}
	return imaging.LoadLabelMask(s.cache, path)
}

// saveMask writes m when path is set and reports the written path. The path
// is evicted from the cache so a later call reads the new file.
func (s *Server) saveMask(path string, m *imaging.LabelMask) (string, error) {
	if path == "" {
		return "", nil
	}
	if err := imaging.SaveLabelMask(path, m); err != nil {
		return "", err
	}
	s.cache.Evict(path)
	return path, nil
}

// errorStrings flattens a joined error into its messages.
func errorStrings(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// === File Matching Handlers ===

type matchChannelsArgs struct {
	Channels     []channels.Channel `json:"channels"`
	PrefixLength *int               `json:"prefix_length"`
}

type matchResponse struct {
	*channels.MatchResult
	Errors []string `json:"errors,omitempty"`
}

func prefixLength(p *int) int {
	if p == nil {
		return channels.DefaultPrefixLength
	}
	return *p
}

// match keeps data-consistency errors in the response: the groups that did
// match are still useful to the caller.
func match(chs []channels.Channel, prefixLen int) (*matchResponse, error) {
	result, err := channels.Match(chs, prefixLen)
	if result == nil {
		return nil, err
	}
	return &matchResponse{MatchResult: result, Errors: errorStrings(err)}, nil
}

func (s *Server) handleMatchChannels(args json.RawMessage) (interface{}, error) {
	var a matchChannelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return match(a.Channels, prefixLength(a.PrefixLength))
}

type scanDirectoryArgs struct {
	Directory    string   `json:"directory"`
	Tags         []string `json:"tags"`
	Extensions   []string `json:"extensions"`
	PrefixLength *int     `json:"prefix_length"`
	Match        *bool    `json:"match"`
}

type scanResponse struct {
	Scan  *channels.ScanResult `json:"scan"`
	Match *matchResponse       `json:"match,omitempty"`
}

func (s *Server) handleScanDirectory(args json.RawMessage) (interface{}, error) {
	var a scanDirectoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	doMatch := a.Match == nil || *a.Match
	prefixLen := prefixLength(a.PrefixLength)
	if doMatch {
		if err := channels.CheckTagLengths(a.Tags, prefixLen); err != nil {
			return nil, err
		}
	}
	scan, err := channels.Scan(a.Directory, a.Tags, a.Extensions)
	if err != nil {
		return nil, err
	}
	resp := &scanResponse{Scan: scan}
	if doMatch {
		if resp.Match, err = match(scan.Channels, prefixLen); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// === Mask Operation Handlers ===

type findOverlapArgs struct {
	ReferenceMask string  `json:"reference_mask"`
	QueryMask     string  `json:"query_mask"`
	Threshold     float64 `json:"threshold"`
	BinaryLevel   int     `json:"binary_level"`
	OutputPath    string  `json:"output_path"`
}

type findOverlapResponse struct {
	*detection.OverlapResult
	ReferenceObjects int    `json:"reference_objects"`
	QueryObjects     int    `json:"query_objects"`
	OutputPath       string `json:"output_path,omitempty"`
}

func (s *Server) handleFindOverlap(args json.RawMessage) (interface{}, error) {
	var a findOverlapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == 0 {
		a.Threshold = s.defaults.OverlapThreshold
	}
	ref, err := s.loadMask(a.ReferenceMask, a.BinaryLevel)
	if err != nil {
		return nil, fmt.Errorf("reference mask: %w", err)
	}
	query, err := s.loadMask(a.QueryMask, a.BinaryLevel)
	if err != nil {
		return nil, fmt.Errorf("query mask: %w", err)
	}

	result, err := detection.Overlap(ref, query, a.Threshold)
	if err != nil {
		return nil, err
	}
	out, err := s.saveMask(a.OutputPath, result.Mask)
	if err != nil {
		return nil, err
	}
	return &findOverlapResponse{
		OverlapResult:    result,
		ReferenceObjects: ref.ObjectCount(),
		QueryObjects:     query.ObjectCount(),
		OutputPath:       out,
	}, nil
}

type buildRingArgs struct {
	Mask        string `json:"mask"`
	Radius      int    `json:"radius"`
	BinaryLevel int    `json:"binary_level"`
	OutputPath  string `json:"output_path"`
}

type ringObject struct {
	Label      int `json:"label"`
	Area       int `json:"area"`
	RingPixels int `json:"ring_pixels"`
}

type buildRingResponse struct {
	Radius     int          `json:"radius"`
	Objects    []ringObject `json:"objects"`
	OutputPath string       `json:"output_path,omitempty"`
}

func (s *Server) handleBuildRing(args json.RawMessage) (interface{}, error) {
	var a buildRingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Radius == 0 {
		a.Radius = s.defaults.RingRadius
	}
	mask, err := s.loadMask(a.Mask, a.BinaryLevel)
	if err != nil {
		return nil, err
	}

	ring, err := detection.BuildRing(mask, a.Radius)
	if err != nil {
		return nil, err
	}
	out, err := s.saveMask(a.OutputPath, ring)
	if err != nil {
		return nil, err
	}

	groups := ring.PixelGroups()
	props := imaging.MeasureObjects(mask)
	objects := make([]ringObject, len(props))
	for i, p := range props {
		objects[i] = ringObject{Label: p.Label, Area: p.Area}
		if p.Label < len(groups) {
			objects[i].RingPixels = len(groups[p.Label])
		}
	}
	return &buildRingResponse{Radius: a.Radius, Objects: objects, OutputPath: out}, nil
}

type validateEnrichmentArgs struct {
	Image          string  `json:"image"`
	ObjectsMask    string  `json:"objects_mask"`
	BackgroundMask string  `json:"background_mask"`
	Radius         int     `json:"radius"`
	Alpha          float64 `json:"alpha"`
	OutputPath     string  `json:"output_path"`
}

type validateEnrichmentResponse struct {
	*enrichment.Result
	Passed     []int  `json:"passed"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleValidateEnrichment(args json.RawMessage) (interface{}, error) {
	var a validateEnrichmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Alpha == 0 {
		a.Alpha = s.defaults.Alpha
	}
	if a.Radius == 0 {
		a.Radius = s.defaults.RingRadius
	}

	img, err := imaging.LoadIntensityImage(s.cache, a.Image)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	objects, err := s.loadMask(a.ObjectsMask, 0)
	if err != nil {
		return nil, fmt.Errorf("objects mask: %w", err)
	}

	var background *imaging.LabelMask
	if a.BackgroundMask != "" {
		if background, err = s.loadMask(a.BackgroundMask, 0); err != nil {
			return nil, fmt.Errorf("background mask: %w", err)
		}
	} else if background, err = detection.BuildRing(objects, a.Radius); err != nil {
		return nil, err
	}

	result, err := enrichment.Validate(img, objects, background, a.Alpha)
	if err != nil {
		return nil, err
	}
	out, err := s.saveMask(a.OutputPath, result.Mask)
	if err != nil {
		return nil, err
	}
	return &validateEnrichmentResponse{Result: result, Passed: result.Passed(), OutputPath: out}, nil
}

type countObjectsArgs struct {
	Mask        string `json:"mask"`
	MinArea     *int   `json:"min_area"`
	MaxArea     *int   `json:"max_area"`
	BinaryLevel int    `json:"binary_level"`
	OutputPath  string `json:"output_path"`
}

type countObjectsResponse struct {
	Count      int    `json:"count"`
	MinArea    int    `json:"min_area"`
	MaxArea    int    `json:"max_area"`
	Areas      []int  `json:"areas"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleCountObjects(args json.RawMessage) (interface{}, error) {
	var a countObjectsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r := detection.SizeRange{Min: s.defaults.MinArea, Max: s.defaults.MaxArea}
	if a.MinArea != nil {
		r.Min = *a.MinArea
	}
	if a.MaxArea != nil {
		r.Max = *a.MaxArea
	}
	mask, err := s.loadMask(a.Mask, a.BinaryLevel)
	if err != nil {
		return nil, err
	}

	count, err := detection.CountObjects(mask, r.Min, r.Max)
	if err != nil {
		return nil, err
	}
	areas, err := detection.ComponentAreas(mask)
	if err != nil {
		return nil, err
	}
	resp := &countObjectsResponse{Count: count, MinArea: r.Min, MaxArea: r.Max, Areas: areas}
	if a.OutputPath == "" {
		return resp, nil
	}

	// Saved objects are the counted components, numbered in raster order.
	components := imaging.LabelComponents(mask.Presence(), mask.Width, mask.Height)
	counted, err := detection.FilterBySize(components, r)
	if err != nil {
		return nil, err
	}
	if resp.OutputPath, err = s.saveMask(a.OutputPath, counted); err != nil {
		return nil, err
	}
	return resp, nil
}

type measureObjectsArgs struct {
	Mask        string `json:"mask"`
	BinaryLevel int    `json:"binary_level"`
	Split       bool   `json:"split"`
}

// measuredObject carries the palette color the object gets in overlays.
type measuredObject struct {
	imaging.ObjectProps
	Color string `json:"color"`
}

type measureObjectsResponse struct {
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Count   int              `json:"count"`
	Objects []measuredObject `json:"objects"`
}

func (s *Server) handleMeasureObjects(args json.RawMessage) (interface{}, error) {
	var a measureObjectsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.loadMask(a.Mask, a.BinaryLevel)
	if err != nil {
		return nil, err
	}
	if a.Split {
		mask = imaging.Relabel(mask)
	}
	props := imaging.MeasureObjects(mask)
	objects := make([]measuredObject, len(props))
	for i, p := range props {
		objects[i] = measuredObject{ObjectProps: p, Color: imaging.LabelHex(p.Label)}
	}
	return &measureObjectsResponse{Width: mask.Width, Height: mask.Height, Count: len(objects), Objects: objects}, nil
}

// === Field Analysis Handlers ===

type analyzeFieldArgs struct {
	pipeline.FieldInputs
	OverlapThreshold *float64 `json:"overlap_threshold"`
	RingRadius       *int     `json:"ring_radius"`
	Alpha            *float64 `json:"alpha"`
	MinArea          *int     `json:"min_area"`
	MaxArea          *int     `json:"max_area"`
}

func (a analyzeFieldArgs) params(defaults pipeline.Params) pipeline.Params {
	p := defaults
	if a.OverlapThreshold != nil {
		p.OverlapThreshold = *a.OverlapThreshold
	}
	if a.RingRadius != nil {
		p.RingRadius = *a.RingRadius
	}
	if a.Alpha != nil {
		p.Alpha = *a.Alpha
	}
	if a.MinArea != nil {
		p.MinArea = *a.MinArea
	}
	if a.MaxArea != nil {
		p.MaxArea = *a.MaxArea
	}
	return p
}

func (s *Server) handleAnalyzeField(args json.RawMessage) (interface{}, error) {
	var a analyzeFieldArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		a.Name = a.ProbeImage
	}
	return pipeline.NewAnalyzer(s.cache, a.params(s.defaults)).Analyze(a.FieldInputs)
}

// === Visualization Handlers ===

type overlayArgs struct {
	Image  string `json:"image"`
	Layers []struct {
		Mask    string  `json:"mask"`
		Color   string  `json:"color"`
		Opacity float64 `json:"opacity"`
		Outline bool    `json:"outline"`
	} `json:"layers"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
}

type overlaySavedResponse struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var base *imaging.IntensityImage
	if a.Image != "" {
		var err error
		if base, err = imaging.LoadIntensityImage(s.cache, a.Image); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}

	layers := make([]imaging.OverlayLayer, len(a.Layers))
	for i, l := range a.Layers {
		mask, err := s.loadMask(l.Mask, 0)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers[i] = imaging.OverlayLayer{Mask: mask, Color: l.Color, Opacity: l.Opacity, Outline: l.Outline}
	}

	img, err := imaging.RenderOverlay(base, layers, imaging.OverlayOptions{Scale: a.Scale})
	if err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		if err := imaging.SaveOverlay(a.OutputPath, img); err != nil {
			return nil, err
		}
		b := img.Bounds()
		return &overlaySavedResponse{Width: b.Dx(), Height: b.Dy(), OutputPath: a.OutputPath}, nil
	}
	return imaging.EncodeOverlay(img)
}
