package storage

import (
	"fmt"
	"strings"
)

// BuildProductImagePath composes the object key for a product image. Objects
// are grouped by club and category so the production team can browse the
// bucket by hand when preparing a batch.
func BuildProductImagePath(clubName, category, fileName string) (string, error) {
	club, err := validateSegment("clubName", clubName)
	if err != nil {
		return "", err
	}
	cat, err := validateSegment("category", category)
	if err != nil {
		return "", err
	}
	file, err := validateSegment("fileName", fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", club, cat, file), nil
}

// BuildExportPath composes the object key for a generated batch export.
func BuildExportPath(clubName, batch, fileName string) (string, error) {
	club, err := validateSegment("clubName", clubName)
	if err != nil {
		return "", err
	}
	batchSeg, err := validateSegment("batch", batch)
	if err != nil {
		return "", err
	}
	file, err := validateSegment("fileName", fileName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("exports/%s/%s/%s", club, batchSeg, file), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}
