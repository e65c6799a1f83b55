package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	errs "subharvest/pkg/errors"
	"subharvest/pkg/kilonova"
	"subharvest/pkg/logger"
)

// Manager handles checkpoint operations. A checkpoint is a pair of files:
// the data file holding the accumulated dump as JSON, and a marker file
// holding the resumption offset as a single decimal integer. The data file
// is always written before the marker, so the marker never refers to a dump
// that does not yet reflect it.
type Manager struct {
	dataPath   string
	markerPath string
	logger     logger.Logger
}

// NewManager creates a new checkpoint manager for the given file pair
func NewManager(dataPath, markerPath string) *Manager {
	return &Manager{
		dataPath:   dataPath,
		markerPath: markerPath,
		logger:     logger.GetLogger(),
	}
}

// DataPath returns the path of the checkpoint data file
func (m *Manager) DataPath() string {
	return m.dataPath
}

// Save writes the full dump to the data file and then the offset to the
// marker file. The data file is replaced atomically (temp file + rename);
// a crash mid-save leaves the previous checkpoint pair valid.
func (m *Manager) Save(offset int, dump *kilonova.Dump) error {
	if err := m.writeData(dump); err != nil {
		return err
	}

	if err := m.writeMarker(offset); err != nil {
		return err
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"offset":      offset,
		"submissions": dump.Count(),
		"data_file":   m.dataPath,
	})

	return nil
}

func (m *Manager) writeData(dump *kilonova.Dump) error {
	tempPath := m.dataPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return storageError("failed to create temporary data file", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(dump); err != nil {
		file.Close()
		os.Remove(tempPath)
		return storageError("failed to encode dump", err)
	}

	// Ensure data is on disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return storageError("failed to sync data file", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return storageError("failed to close data file", err)
	}

	if err := os.Rename(tempPath, m.dataPath); err != nil {
		os.Remove(tempPath)
		return storageError("failed to replace data file", err)
	}

	return nil
}

func (m *Manager) writeMarker(offset int) error {
	if err := os.WriteFile(m.markerPath, []byte(strconv.Itoa(offset)), 0644); err != nil {
		return storageError("failed to write checkpoint marker", err)
	}
	return nil
}

// LoadOffset returns the resumption offset, or 0 when no marker file exists
// (a fresh start)
func (m *Manager) LoadOffset() (int, error) {
	data, err := os.ReadFile(m.markerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, storageError("failed to read checkpoint marker", err)
	}

	offset, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, &errs.Error{
			Type:    errs.ErrorTypeCheckpoint,
			Message: fmt.Sprintf("invalid checkpoint marker %q: %v", strings.TrimSpace(string(data)), err),
		}
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"offset":      offset,
		"marker_file": m.markerPath,
	})

	return offset, nil
}

// LoadDump reads the data file back into a dump. A marker with a positive
// offset but no readable data file is corrupt state; the caller decides
// whether that is fatal.
func (m *Manager) LoadDump() (*kilonova.Dump, error) {
	file, err := os.Open(m.dataPath)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeCheckpoint,
			Message: fmt.Sprintf("failed to open data file %s: %v", m.dataPath, err),
		}
	}
	defer file.Close()

	dump := kilonova.NewDump()
	if err := json.NewDecoder(file).Decode(dump); err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeCheckpoint,
			Message: fmt.Sprintf("failed to decode data file %s: %v", m.dataPath, err),
		}
	}

	m.logger.InfoWithFields("dump loaded", map[string]interface{}{
		"submissions": dump.Count(),
		"users":       len(dump.Users),
		"problems":    len(dump.Problems),
	})

	return dump, nil
}

// DataExists checks if the checkpoint data file exists
func (m *Manager) DataExists() bool {
	_, err := os.Stat(m.dataPath)
	return err == nil
}

// Exists checks if a checkpoint marker exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.markerPath)
	return err == nil
}

// Delete removes the checkpoint pair (used for forced restarts)
func (m *Manager) Delete() error {
	if err := os.Remove(m.markerPath); err != nil && !os.IsNotExist(err) {
		return storageError("failed to delete checkpoint marker", err)
	}
	if err := os.Remove(m.dataPath); err != nil && !os.IsNotExist(err) {
		return storageError("failed to delete data file", err)
	}

	m.logger.Info("checkpoint deleted")
	return nil
}

func storageError(msg string, err error) error {
	return &errs.Error{
		Type:    errs.ErrorTypeStorage,
		Message: fmt.Sprintf("%s: %v", msg, err),
	}
}
