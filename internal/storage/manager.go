package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager lays out the data directory: uploaded receipts under
// receipts/<event-id>/ and export packages under exports/<reference>/.
type Manager struct {
	baseDir string
	logger  *zap.Logger
}

// NewManager creates a Manager rooted at baseDir.
func NewManager(baseDir string, logger *zap.Logger) *Manager {
	return &Manager{baseDir: baseDir, logger: logger}
}

var receiptExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SaveReceipt stores an uploaded receipt for an event and returns the stored
// filename. The name is prefixed with a random identifier so repeated
// uploads of the same file never collide.
func (m *Manager) SaveReceipt(eventID int64, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !receiptExtensions[ext] {
		return "", fmt.Errorf("unsupported receipt type: %s", ext)
	}

	dir := m.receiptDir(eventID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.logger.Error("Failed to create receipt folder",
			zap.Int64("event_id", eventID),
			zap.Error(err))
		return "", fmt.Errorf("failed to create receipt folder: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", uuid.NewString()[:8], sanitizeName(originalName))
	path := filepath.Join(dir, stored)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create receipt file: %w", err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close receipt file: %w", err)
	}

	m.logger.Debug("Receipt stored",
		zap.Int64("event_id", eventID),
		zap.String("file", stored))

	return stored, nil
}

// ReceiptPath returns the full path of a stored receipt.
func (m *Manager) ReceiptPath(eventID int64, filename string) string {
	return filepath.Join(m.receiptDir(eventID), sanitizeName(filename))
}

// DeleteEventReceipts removes the receipt folder of an event. Deleting a
// folder that does not exist is a no-op.
func (m *Manager) DeleteEventReceipts(eventID int64) error {
	dir := m.receiptDir(eventID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		m.logger.Error("Failed to delete receipt folder",
			zap.Int64("event_id", eventID),
			zap.Error(err))
		return fmt.Errorf("failed to delete receipt folder: %w", err)
	}
	return nil
}

// CreateExportFolder creates exports/<reference>/ and returns its path.
func (m *Manager) CreateExportFolder(reference string) (string, error) {
	if reference == "" {
		return "", fmt.Errorf("cannot create export folder: empty reference")
	}
	path := filepath.Join(m.baseDir, "exports", sanitizeName(reference))
	if err := os.MkdirAll(path, 0755); err != nil {
		m.logger.Error("Failed to create export folder",
			zap.String("reference", reference),
			zap.Error(err))
		return "", fmt.Errorf("failed to create export folder: %w", err)
	}
	return path, nil
}

func (m *Manager) receiptDir(eventID int64) string {
	return filepath.Join(m.baseDir, "receipts", fmt.Sprintf("%d", eventID))
}

// sanitizeName strips path separators and unsafe characters to prevent
// directory traversal through user-supplied filenames.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	return unsafeNameChars.ReplaceAllString(name, "_")
}
