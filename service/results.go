package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reportdeck/models"
)

// ResultsStorage keeps copies of generated export files on disk so they can
// be re-downloaded without re-running the query.
type ResultsStorage struct {
	resultsDir string
}

func NewResultsStorage(resultsDir string) (*ResultsStorage, error) {
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &ResultsStorage{resultsDir: resultsDir}, nil
}

// SaveExport writes an export file and returns the stored filename. The
// name is flattened to its base to keep writes inside the results dir.
func (r *ResultsStorage) SaveExport(filename string, data []byte) (string, error) {
	filename = filepath.Base(filename)
	filePath := filepath.Join(r.resultsDir, filename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return filename, nil
}

// ListResultFiles returns the stored export files.
func (r *ResultsStorage) ListResultFiles() ([]models.ResultFileInfo, error) {
	files, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory: %w", err)
	}

	var resultFiles []models.ResultFileInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := filepath.Ext(file.Name())
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		resultFiles = append(resultFiles, models.ResultFileInfo{
			Filename: file.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format(time.RFC3339),
			Format:   ext[1:],
		})
	}

	return resultFiles, nil
}

// GetResultFilePath resolves a stored export file, rejecting names that
// escape the results directory.
func (r *ResultsStorage) GetResultFilePath(filename string) (string, error) {
	if filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid result filename")
	}
	filePath := filepath.Join(r.resultsDir, filename)
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("result file not found: %w", err)
	}
	return filePath, nil
}
