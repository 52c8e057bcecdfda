// Package device manages the installation's stable identity. Every
// installation gets a UUID v4 generated on first run and persisted in the
// data directory; remote writes carry it so records can be traced back to
// the machine that produced them.
package device

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/skywaveads/erp-core/internal/errors"
)

// IDFileName is the file in the data directory holding the device id.
const IDFileName = "device_id"

// ID loads the persisted device identifier, generating and saving a new
// one on first run or when the stored value is not a valid UUID.
func ID(dataDir string) (string, error) {
	path := filepath.Join(dataDir, IDFileName)

	raw, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(raw))
		if _, parseErr := uuid.Parse(id); parseErr == nil {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(errors.ErrInternal, "device id read failed", err)
	}

	id := uuid.New().String()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrInternal, "data dir create failed", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", errors.Wrap(errors.ErrInternal, "device id write failed", err)
	}
	return id, nil
}
