package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the weight
// calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// LoadCalibration loads rule scoring weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, default weights are
// returned along with the error so the caller can degrade gracefully.
// Partial configurations are merged with defaults; only non-zero override
// values are applied. The merged result is still subject to strict
// validation at scorer construction.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read weight calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse weight calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only
// non-zero values from the override are applied, which allows partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Education != 0 {
		result.Education = override.Education
	}
	if override.Age != 0 {
		result.Age = override.Age
	}
	if override.Location != 0 {
		result.Location = override.Location
	}
	if override.Category != 0 {
		result.Category = override.Category
	}
	if override.Salary != 0 {
		result.Salary = override.Salary
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	for _, factor := range Factors {
		if loaded.Of(factor) != defaults.Of(factor) {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f",
				factor, defaults.Of(factor), loaded.Of(factor)))
		}
	}

	if len(overrides) > 0 {
		slog.Info("loaded weight calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded weight calibration (using all defaults)")
	}
}
