package file

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Hashes are the evidence digests of an analysed file.
type Hashes struct {
	SHA256     string `json:"sha256"`
	Blake2b256 string `json:"blake2b_256"`
}

// FileOperations defines methods for reading from and writing to files.
type FileOperations interface {
	IsFileExists(filePath string) (bool, error)
	ReadFileRaw(filePath string) ([]byte, error)
	ReadYamlFile(filePath string, v any) error
	WriteFileRaw(filePath string, data []byte) error
	WriteJsonFile(filePath string, data any) error
	GetFileHashes(filePath string) (Hashes, error)
}

// FileService implements the FileOperations interface using standard file operations.
type FileService struct{}

// NewFileService creates a new instance of FileService.
func NewFileService() *FileService {
	return &FileService{}
}

// IsFileExists checks if the file exists and returns boolean and error
func (fs *FileService) IsFileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false, nil
	}

	// checking err == nil because of permission related error
	return err == nil, err
}

// ReadFileRaw reads the contents of the file at filePath and returns it as a byte array.
func (fs *FileService) ReadFileRaw(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// ReadYamlFile reads and unmarshals YAML data from the given file.
func (fs *FileService) ReadYamlFile(filePath string, v any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// WriteFileRaw writes the data byte array to the file at filePath.
func (fs *FileService) WriteFileRaw(filePath string, data []byte) error {
	return os.WriteFile(filePath, data, 0644)
}

// WriteJsonFile writes data as indented UTF-8 JSON, replacing filePath atomically.
func (fs *FileService) WriteJsonFile(filePath string, data any) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile) // Clean up partial file
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath) // Atomic file update
}

// GetFileHashes returns the SHA-256 and BLAKE2b-256 digests of the file in one pass.
func (fs *FileService) GetFileHashes(filePath string) (Hashes, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Hashes{}, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	sha := sha256.New()
	b2, err := blake2b.New256(nil)
	if err != nil {
		return Hashes{}, err
	}

	if _, err := io.Copy(io.MultiWriter(sha, b2), file); err != nil {
		return Hashes{}, fmt.Errorf("error reading file contents: %w", err)
	}

	return Hashes{
		SHA256:     hex.EncodeToString(sha.Sum(nil)),
		Blake2b256: hex.EncodeToString(b2.Sum(nil)),
	}, nil
}
