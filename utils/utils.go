package utils

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// GetEnv returns the value of key, or the first fallback when it is unset or empty.
func GetEnv(key string, fallback ...string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

func GetEnvInt(key string, fallback int) (int, error) {
	raw := GetEnv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("env %s: %q is not an integer: %w", key, raw, err)
	}
	return v, nil
}

func GetEnvFloat(key string, fallback float64) (float64, error) {
	raw := GetEnv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("env %s: %q is not a number: %w", key, raw, err)
	}
	return v, nil
}

func CreateFolder(folderPath string) error {
	return os.MkdirAll(folderPath, 0o755)
}

// DeleteFile removes filePath, ignoring files that are already gone.
func DeleteFile(filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RenameFile moves sourcePath to destinationPath by copying, so it also works across devices.
func RenameFile(sourcePath, destinationPath string) error {
	srcFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("renamefile: failed to open source path: %w", err)
	}

	destFile, err := os.Create(destinationPath)
	if err != nil {
		srcFile.Close()
		return fmt.Errorf("renamefile: failed to create destination path: %w", err)
	}
	defer destFile.Close()

	//copy contents from source file into destination file
	if _, err = io.Copy(destFile, srcFile); err != nil {
		srcFile.Close()
		return fmt.Errorf("renamefile: cannot copy src into dest: %w", err)
	}

	if err = srcFile.Close(); err != nil {
		return err
	}

	return os.Remove(sourcePath)
}
