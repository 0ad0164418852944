package doctor

import (
	"context"

	"github.com/hay-kot/acre/internal/core/config"
)

// ConfigCheck validates the loaded configuration, including the I/O
// checks a plain load skips.
type ConfigCheck struct {
	Config *config.Config
	Path   string
}

// NewConfigCheck creates a config check against the given file path.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{Config: cfg, Path: path}
}

func (c *ConfigCheck) Name() string {
	return "Config"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.Config.ValidateDeep(c.Path); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "config",
		Status: StatusPass,
		Detail: c.Path,
	})
	return result
}
