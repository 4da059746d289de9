package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/internal/files/scanner"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// ErrConfigExists is returned when shpload.yaml is already present and Force is not set.
var ErrConfigExists = errors.New("config file already exists")

const header = `# shpload configuration.
# Layers are loaded in order by 'shpload bulk <dir>'. Edit table names,
# set replace/append per layer, or remove layers you do not want loaded.
`

// Options control the generated configuration.
type Options struct {
	Schema     string
	SRID       int
	Recursive  bool
	Force      bool
	Connection config.ConnectionConfig
}

// Scaffolder writes a starter shpload.yaml for a directory of shapefiles.
type Scaffolder struct {
	logger  shpload.Logger
	scanner *scanner.Scanner
}

// NewScaffolder creates a new Scaffolder over the OS filesystem.
// Panics if logger is nil.
func NewScaffolder(logger shpload.Logger) *Scaffolder {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scaffolder{logger: logger, scanner: scanner.NewScanner()}
}

// CreateConfig scans dir and writes dir/shpload.yaml listing every shapefile
// found as a layer. It returns the written path and the datasets listed.
func (s *Scaffolder) CreateConfig(dir string, opts Options) (string, []scanner.Dataset, error) {
	path := filepath.Join(dir, config.ConfigFileName)
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return "", nil, fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrConfigExists)
		} else if !os.IsNotExist(err) {
			return "", nil, err
		}
	}

	datasets, err := s.scanner.ScanDirectory(dir, opts.Recursive)
	if err != nil {
		return "", nil, err
	}
	if len(datasets) == 0 {
		return "", nil, fmt.Errorf("no shapefiles found in %s: %w", dir, shpload.ErrInvalidConfig)
	}
	s.logger.Verbose("Found %d shapefile(s) in %s", len(datasets), dir)

	data, err := Render(datasets, opts)
	if err != nil {
		return "", nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Verbose("Wrote %s", path)
	return path, datasets, nil
}

// Render produces the shpload.yaml content for datasets.
func Render(datasets []scanner.Dataset, opts Options) ([]byte, error) {
	cfg := config.ProjectConfig{
		Connection: opts.Connection,
		Schema:     opts.Schema,
		SRID:       opts.SRID,
		Layers:     make([]config.Layer, len(datasets)),
	}
	for i, d := range datasets {
		cfg.Layers[i] = config.Layer{File: d.RelativePath, Table: d.Table}
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return nil, fmt.Errorf("encode %s: %w", config.ConfigFileName, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
