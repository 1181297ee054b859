package config

import (
	"github.com/ironsheep/coloc-tools-mcp/internal/channels"
	"github.com/ironsheep/coloc-tools-mcp/internal/pipeline"
)

const (
	defaultOutputSubdir = "coloc-results"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultWorkers      = 1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	params := pipeline.DefaultParams()
	return Config{
		Experiment: Experiment{
			Name: "experiment",
		},
		Channels: Channels{
			PrefixLength: channels.DefaultPrefixLength,
			Extensions:   append([]string(nil), channels.DefaultExtensions...),
			Tags:         []string{"C1", "C2", "C3"},
			Names:        map[string]string{},
			MaskSuffix:   pipeline.DefaultMaskSuffix,
		},
		Roles: Roles{
			OverlapReference: "C2",
			OverlapQuery:     "C3",
			Granule:          "C3",
			Probe:            "C2",
		},
		Analysis: Analysis{
			OverlapThreshold: params.OverlapThreshold,
			RingRadius:       params.RingRadius,
			Alpha:            params.Alpha,
			MinArea:          params.MinArea,
			MaxArea:          params.MaxArea,
			Workers:          defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
