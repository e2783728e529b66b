package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// validateFilePath performs comprehensive security validation on file paths
// accepted from the command line: the job document and the rules document.
func validateFilePath(filePath, fileType string) error {
	if filePath == "" {
		return fmt.Errorf("%s file path cannot be empty", fileType)
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("invalid %s file path: %v", fileType, err)
	}

	cleanPath := filepath.Clean(filePath)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("directory traversal detected in %s file path: %s", fileType, filePath)
	}

	if err := validateFileExtension(absPath, fileType); err != nil {
		return err
	}

	if err := validateFileAccess(absPath, fileType); err != nil {
		return err
	}

	if err := validateFileSize(absPath, fileType); err != nil {
		return err
	}

	return nil
}

// validateFileExtension ensures files have expected extensions.
func validateFileExtension(filePath, fileType string) error {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch fileType {
	case "job", "rules":
		validExts := []string{".json"}
		if !contains(validExts, ext) {
			return fmt.Errorf("invalid %s file extension: %s (expected: %v)", fileType, ext, validExts)
		}
	case "app config":
		validExts := []string{".yaml", ".yml"}
		if !contains(validExts, ext) {
			return fmt.Errorf("invalid app config file extension: %s (expected: %v)", ext, validExts)
		}
	}

	return nil
}

// validateFileAccess checks if file exists and is readable.
func validateFileAccess(filePath, fileType string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", fileType, filePath)
		}
		return fmt.Errorf("cannot access %s file: %s (%v)", fileType, filePath, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s path is not a regular file: %s", fileType, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s file is not readable: %s (%v)", fileType, filePath, err)
	}
	file.Close()

	return nil
}

// validateFileSize ensures file size is reasonable.
func validateFileSize(filePath, fileType string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	size := info.Size()

	var maxSize int64
	switch fileType {
	case "job":
		maxSize = 500 * 1024 * 1024 // a large joint-use survey export
	case "rules":
		maxSize = 1 * 1024 * 1024
	case "app config":
		maxSize = 1 * 1024 * 1024
	default:
		maxSize = 100 * 1024 * 1024
	}

	if size > maxSize {
		return fmt.Errorf("%s file too large: %d bytes (max: %d bytes)", fileType, size, maxSize)
	}

	if size == 0 {
		return fmt.Errorf("%s file is empty: %s", fileType, filePath)
	}

	return nil
}

// validateOutputPath ensures the issues-output directory is safe and
// writable before the engine runs.
func validateOutputPath(outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %v", err)
	}

	cleanPath := filepath.Clean(outputPath)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("directory traversal detected in output path: %s", outputPath)
	}

	parentDir := filepath.Dir(absPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory: %s (%v)", parentDir, err)
	}

	testFile := filepath.Join(parentDir, ".katapultqc_write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("no write permission in output directory: %s", parentDir)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
