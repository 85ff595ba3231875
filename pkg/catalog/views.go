package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chromedash/chromedash/pkg/types"
)

//go:embed views.yaml
var viewsYAML []byte

// Views returns the legend entries shipped with the binary.
func Views() ([]types.View, error) {
	var views []types.View
	if err := yaml.Unmarshal(viewsYAML, &views); err != nil {
		return nil, fmt.Errorf("decode views: %w", err)
	}
	return views, nil
}
