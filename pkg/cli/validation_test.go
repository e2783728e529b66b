package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateFilePath(t *testing.T) {
	tmpDir := t.TempDir()
	validJob := filepath.Join(tmpDir, "test.json")
	file, err := os.Create(validJob)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	file.WriteString(`{"jobId":"J1"}`)
	file.Close()

	tests := []struct {
		name     string
		filePath string
		fileType string
		wantErr  bool
	}{
		{"Valid job file", validJob, "job", false},
		{"Empty file path", "", "job", true},
		{"Directory traversal attempt", "../../../etc/passwd", "rules", true},
		{"Invalid job extension", "/tmp/test.txt", "job", true},
		{"Non-existent file", "/non/existent/file.json", "job", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.filePath, tt.fileType)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFilePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileExtension(t *testing.T) {
	tests := []struct {
		name     string
		filePath string
		fileType string
		wantErr  bool
	}{
		{"Valid job extension", "job.json", "job", false},
		{"Valid rules extension", "rules.json", "rules", false},
		{"Valid app config extension", "app.yaml", "app config", false},
		{"Valid app config yml extension", "app.yml", "app config", false},
		{"Invalid job extension", "job.txt", "job", true},
		{"Invalid app config extension", "app.json", "app config", true},
		{"No extension", "testfile", "job", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExtension(tt.filePath, tt.fileType)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFileExtension() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tmpDir := t.TempDir()
	validPath := filepath.Join(tmpDir, "output", "issues.json")

	tests := []struct {
		name       string
		outputPath string
		wantErr    bool
	}{
		{"Valid output path", validPath, false},
		{"Empty path", "", true},
		{"Directory traversal", "../../../tmp/issues.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutputPath(tt.outputPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateOutputPath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	tmpDir := t.TempDir()

	smallFile := filepath.Join(tmpDir, "small.json")
	file, err := os.Create(smallFile)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	file.WriteString(`{"jobId":"J1"}`)
	file.Close()

	emptyFile := filepath.Join(tmpDir, "empty.json")
	file, err = os.Create(emptyFile)
	if err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	file.Close()

	tests := []struct {
		name     string
		filePath string
		fileType string
		wantErr  bool
	}{
		{"Valid small file", smallFile, "job", false},
		{"Empty file", emptyFile, "job", true},
		{"Non-existent file", "/non/existent.json", "job", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileSize(tt.filePath, tt.fileType)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFileSize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkValidateFilePath(b *testing.B) {
	tmpDir := b.TempDir()
	testFile := filepath.Join(tmpDir, "test.json")
	file, _ := os.Create(testFile)
	file.WriteString(`{"jobId":"J1"}`)
	file.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		validateFilePath(testFile, "job")
	}
}
