package exporter

import (
	"route-forge/internal/config"
	"route-forge/internal/model"
)

// Exporter is the unified interface for all reporting strategies
type Exporter interface {
	Export(summary *model.RunSummary, specs []*model.RouteSpecification, cfg *config.Config) error
}
