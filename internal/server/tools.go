package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// File Matching
		{
			Name:        "coloc_match_channels",
			Description: "Group image files of several channels into fields of view by the identifier that follows the channel prefix. The first channel is the reference. Returns complete and partial groups; duplicate identifiers are reported as errors without stopping the match.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"channels": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"files": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "string"},
								},
							},
							"required": []string{"name", "files"},
						},
						"description": "Channel file collections, reference channel first",
					},
					"prefix_length": map[string]interface{}{
						"type":        "integer",
						"description": "Width of the channel tag at the start of each filename (default 2)",
						"default":     2,
					},
				},
				"required": []string{"channels"},
			},
		},
		{
			Name:        "coloc_scan_directory",
			Description: "List the images of a directory by channel tag, then optionally match them into fields of view.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"directory": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image directory",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Channel tags such as C1, C2, C3. The first is the reference channel.",
					},
					"extensions": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Accepted file extensions (default .tif, .tiff)",
					},
					"prefix_length": map[string]interface{}{
						"type":        "integer",
						"description": "Width of the channel tag (default 2)",
						"default":     2,
					},
					"match": map[string]interface{}{
						"type":        "boolean",
						"description": "Also match the scanned files into groups (default true)",
						"default":     true,
					},
				},
				"required": []string{"directory", "tags"},
			},
		},

		// Mask Operations
		{
			Name:        "coloc_find_overlap",
			Description: "Keep the reference objects whose pixel fraction lying on query objects reaches the threshold. Reports per-object overlap and can save the resulting label mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"reference_mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the reference label mask",
					},
					"query_mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the query label mask",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Required overlap fraction in (0, 1] (default 0.5)",
					},
					"binary_level": map[string]interface{}{
						"type":        "integer",
						"description": "Treat the masks as binary images thresholded at this 8-bit level and label their components. 0 reads them as label images.",
						"default":     0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the overlap mask as a 16-bit image",
					},
				},
				"required": []string{"reference_mask", "query_mask"},
			},
		},
		{
			Name:        "coloc_build_ring",
			Description: "Dilate every object of a label mask by a disk and keep only the added pixels, labeled with the object they surround. The ring is the object's local background.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the label mask",
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Disk radius in pixels (default 3)",
					},
					"binary_level": map[string]interface{}{
						"type":        "integer",
						"description": "Threshold level for binary masks; 0 reads a label image",
						"default":     0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the ring mask as a 16-bit image",
					},
				},
				"required": []string{"mask"},
			},
		},
		{
			Name:        "coloc_validate_enrichment",
			Description: "Test each object for higher intensity than its background ring with a one-tailed t-test, and keep the enriched objects. Without a background mask, rings are built from the objects.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the intensity image",
					},
					"objects_mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the object label mask",
					},
					"background_mask": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path to the background ring mask",
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Ring radius used when no background mask is given (default 3)",
					},
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Significance level in (0, 1) (default 0.05)",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the enriched objects mask",
					},
				},
				"required": []string{"image", "objects_mask"},
			},
		},
		{
			Name:        "coloc_count_objects",
			Description: "Count the 8-connected objects of a mask whose pixel area lies within a size range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest counted area in pixels (default 1)",
					},
					"max_area": map[string]interface{}{
						"type":        "integer",
						"description": "Largest counted area in pixels; 0 means unbounded",
						"default":     0,
					},
					"binary_level": map[string]interface{}{
						"type":        "integer",
						"description": "Threshold level for binary masks; 0 reads a label image",
						"default":     0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the counted objects as a 16-bit label image",
					},
				},
				"required": []string{"mask"},
			},
		},
		{
			Name:        "coloc_measure_objects",
			Description: "Report area, centroid and bounding box of every object in a label mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the label mask",
					},
					"binary_level": map[string]interface{}{
						"type":        "integer",
						"description": "Threshold level for binary masks; 0 reads a label image",
						"default":     0,
					},
					"split": map[string]interface{}{
						"type":        "boolean",
						"description": "Measure each connected piece of a label as its own object (default false)",
						"default":     false,
					},
				},
				"required": []string{"mask"},
			},
		},

		// Field Analysis
		{
			Name:        "coloc_analyze_field",
			Description: "Run the full analysis of one field of view: overlap of the reference and query masks, size-filtered object count, background rings around granules and the enrichment test against the probe image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Field name used in the result",
					},
					"reference_mask": map[string]interface{}{"type": "string", "description": "Reference label mask path"},
					"query_mask":     map[string]interface{}{"type": "string", "description": "Query label mask path"},
					"granule_mask":   map[string]interface{}{"type": "string", "description": "Granule label mask path"},
					"probe_image":    map[string]interface{}{"type": "string", "description": "Probe intensity image path"},
					"overlap_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Overrides the configured overlap threshold",
					},
					"ring_radius": map[string]interface{}{
						"type":        "integer",
						"description": "Overrides the configured ring radius",
					},
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Overrides the configured significance level",
					},
					"min_area": map[string]interface{}{
						"type":        "integer",
						"description": "Overrides the configured minimum counted area",
					},
					"max_area": map[string]interface{}{
						"type":        "integer",
						"description": "Overrides the configured maximum counted area",
					},
				},
				"required": []string{"reference_mask", "query_mask", "granule_mask", "probe_image"},
			},
		},

		// Visualization
		{
			Name:        "coloc_overlay",
			Description: "Draw label masks over an intensity image for visual review and return it as base64-encoded PNG, or save it to a file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path to the base intensity image; omitted gives a black canvas",
					},
					"layers": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"mask":    map[string]interface{}{"type": "string"},
								"color":   map[string]interface{}{"type": "string", "description": "Hex color such as #00FF00; empty uses one color per label"},
								"opacity": map[string]interface{}{"type": "number", "description": "Fill opacity 0-1; 0 draws outlines only"},
								"outline": map[string]interface{}{"type": "boolean"},
							},
							"required": []string{"mask"},
						},
						"description": "Masks drawn in order; later layers cover earlier ones",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the overlay instead of returning it",
					},
				},
				"required": []string{"layers"},
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
