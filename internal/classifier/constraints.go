package classifier

import "github.com/overhuman/overlay/internal/catalog"

// applyConstraints returns a copy of cfg that honours c. The catalog entry
// behind cfg is never touched.
func applyConstraints(cfg catalog.TemplateConfig, c *Constraints) catalog.TemplateConfig {
	if c == nil {
		return cfg
	}
	if c.MaxSize != nil {
		size := cfg.Visual.Size
		if c.MaxSize.Width > 0 && size.Width > c.MaxSize.Width {
			size.Width = c.MaxSize.Width
		}
		if c.MaxSize.Height > 0 && size.Height > c.MaxSize.Height {
			size.Height = c.MaxSize.Height
		}
		if size != cfg.Visual.Size {
			cfg = cfg.WithSize(size)
		}
	}
	if len(c.AllowedPositions) > 0 && !containsPosition(c.AllowedPositions, cfg.Visual.Position) {
		cfg = cfg.WithPosition(c.AllowedPositions[0])
	}
	return cfg
}

func containsPosition(list []catalog.Position, p catalog.Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
