package render

import (
	"encoding/json"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
)

type jsonOutput struct {
	Config   config.Config   `json:"config"`
	Geometry layout.Geometry `json:"geometry"`
}

// JSON renders the configuration and its geometry as indented JSON, for
// consumers that draw the diagram themselves.
func JSON(cfg config.Config, g layout.Geometry) ([]byte, error) {
	data, err := json.MarshalIndent(jsonOutput{Config: cfg, Geometry: g}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
