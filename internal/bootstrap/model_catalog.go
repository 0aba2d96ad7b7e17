package bootstrap

import (
	"os"
	"path/filepath"

	"transcriber/internal/domain"
)

// GetModelCatalog returns the supported model presets, marking the ones
// already present in the models directory.
func (a *App) GetModelCatalog() []domain.WhisperModelOption {
	models := domain.WhisperModelCatalog()
	markDownloadedModels(models, a.Settings.ModelsDir)
	return models
}

// markDownloadedModels flags catalog entries with a local model file.
func markDownloadedModels(models []domain.WhisperModelOption, modelsDir string) {
	if modelsDir == "" {
		return
	}

	for i := range models {
		candidate := filepath.Join(modelsDir, models[i].FileName)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		models[i].Downloaded = true
		models[i].LocalPath = candidate
	}
}
