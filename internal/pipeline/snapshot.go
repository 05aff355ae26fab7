package pipeline

import (
	"time"

	"trendsub/internal/catalog"
	"trendsub/internal/config"
)

// Snapshot is the configuration one run works from. It is copied out of
// config.Config before the run starts and never changes during it.
type Snapshot struct {
	MinRating  float64
	Notify     bool
	PauseMin   time.Duration
	PauseMax   time.Duration
	Categories []catalog.Category
}

// SnapshotFromConfig captures the enabled categories and run switches.
func SnapshotFromConfig(cfg *config.Config) Snapshot {
	enabled := cfg.EnabledCategories()
	cats := make([]catalog.Category, 0, len(enabled))
	for _, c := range enabled {
		cats = append(cats, catalog.Category{
			Key:      c.Key,
			Name:     c.Name,
			Strategy: c.Strategy,
			URL:      c.URL,
			Kind:     catalog.ParseMediaKind(c.MediaType),
			Count:    c.Count,
		})
	}
	return Snapshot{
		MinRating:  cfg.Subscribe.MinRating,
		Notify:     cfg.Subscribe.Notify,
		PauseMin:   seconds(cfg.Subscribe.PauseMinSeconds),
		PauseMax:   seconds(cfg.Subscribe.PauseMaxSeconds),
		Categories: cats,
	}
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}
