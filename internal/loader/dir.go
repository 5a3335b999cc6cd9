// Package loader reads device configurations from disk and turns them into
// domain.ConfigRecord values.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"netaudit/internal/domain"
)

// ConfigFileName is the expected artifact inside each device directory
const ConfigFileName = "config.dump"

// Loader reads a Conf/<Device>/config.dump tree
type Loader struct {
	logger *zap.Logger
	parse  func(node, text string) (domain.ConfigRecord, error)
}

// New creates a loader. A nil logger disables logging.
func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger.Named("loader"), parse: Parse}
}

// ReadDir returns the raw configuration text per device directory. Device
// directories without a config artifact are skipped. A missing root is fatal.
func (l *Loader) ReadDir(root string) (map[string]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.NewError(domain.KindConfigRoot, "ReadDir", fmt.Errorf("config root not found: %s: %w", root, err))
	}
	if !info.IsDir() {
		return nil, domain.NewError(domain.KindConfigRoot, "ReadDir", fmt.Errorf("config root is not a directory: %s", root))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.NewError(domain.KindConfigRoot, "ReadDir", err)
	}

	texts := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name(), ConfigFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Info("skipping device without config",
				zap.String("device", e.Name()),
				zap.Error(domain.NewError(domain.KindMissingInput, path, err)))
			continue
		}
		texts[e.Name()] = string(data)
	}
	return texts, nil
}

// LoadDir reads and parses every device configuration under root. A device
// whose configuration cannot be parsed is logged and skipped.
func (l *Loader) LoadDir(root string) (map[string]domain.ConfigRecord, error) {
	texts, err := l.ReadDir(root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(texts))
	for n := range texts {
		names = append(names, n)
	}
	sort.Strings(names)

	records := make(map[string]domain.ConfigRecord, len(texts))
	for _, name := range names {
		rec, err := l.parse(name, texts[name])
		if err != nil {
			if !domain.IsKind(err, domain.KindParse) {
				err = domain.NewError(domain.KindParse, name, err)
			}
			l.logger.Warn("skipping device with unparsable config",
				zap.String("device", name),
				zap.Error(err))
			continue
		}
		records[name] = rec
		l.logger.Debug("parsed device",
			zap.String("device", name),
			zap.String("hostname", rec.Hostname),
			zap.String("type", string(rec.Kind)),
			zap.Int("interfaces", len(rec.Interfaces)))
	}

	l.logger.Info("loaded device configs", zap.String("root", root), zap.Int("devices", len(records)))
	return records, nil
}

// LoadDir reads and parses every device configuration under root without logging
func LoadDir(root string) (map[string]domain.ConfigRecord, error) {
	return New(nil).LoadDir(root)
}
