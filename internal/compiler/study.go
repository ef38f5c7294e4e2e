package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/pathfill/internal/study"
)

// OpenStudy loads a study file and, when the fom module is enabled,
// compiles the tables under its fom_path and attaches them.
func OpenStudy(path string) (*study.Config, error) {
	cfg, err := study.Load(path)
	if err != nil {
		return nil, err
	}
	if !cfg.HasModule(study.ModuleFOM) {
		return cfg, nil
	}
	if cfg.FOMPath == "" {
		return nil, fmt.Errorf("study %q: fom module enabled without fom_path", cfg.Name)
	}
	result, errs := LoadTables(cfg.FOMPath, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("study %q: %w", cfg.Name, errors.Join(errs...))
	}
	if err := cfg.AttachTables(result.Tables); err != nil {
		return nil, err
	}
	return cfg, nil
}
