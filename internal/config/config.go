package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/shpload/pkg/shpload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// Layer is one explicit (file, table) pair for bulk loads.
// File is relative to the directory holding shpload.yaml.
type Layer struct {
	File       string `yaml:"file"`
	Table      string `yaml:"table,omitempty"`
	Replace    bool   `yaml:"replace,omitempty"`
	Append     bool   `yaml:"append,omitempty"`
	SRID       int    `yaml:"srid,omitempty"`
	TargetSRID int    `yaml:"target_srid,omitempty"`
}

type ProjectConfig struct {
	Connection     ConnectionConfig `yaml:"connection"`
	Schema         string           `yaml:"schema,omitempty"`
	SRID           int              `yaml:"srid,omitempty"`
	TargetSRID     int              `yaml:"target_srid,omitempty"`
	GeometryColumn string           `yaml:"geometry_column,omitempty"`
	SpatialIndex   *bool            `yaml:"spatial_index,omitempty"`
	BatchSize      int              `yaml:"batch_size,omitempty"`
	History        bool             `yaml:"history,omitempty"`
	Timeout        string           `yaml:"timeout,omitempty"`
	Layers         []Layer          `yaml:"layers,omitempty"`
}

const ConfigFileName = "shpload.yaml"

func Load(dir string) (*ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// ParsedTimeout returns the configured timeout, or zero when unset.
func (c *ProjectConfig) ParsedTimeout() (time.Duration, error) {
	if c == nil || c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q in %s: %w", c.Timeout, ConfigFileName, shpload.ErrInvalidConfig)
	}
	return d, nil
}

// ApplyOptions overlays file settings onto opts. Zero values in the file leave opts unchanged.
func (c *ProjectConfig) ApplyOptions(opts shpload.Options) shpload.Options {
	if c == nil {
		return opts
	}
	if c.GeometryColumn != "" {
		opts.GeometryColumn = c.GeometryColumn
	}
	if c.SRID != 0 {
		opts.SRID = c.SRID
	}
	if c.BatchSize > 0 {
		opts.BatchSize = c.BatchSize
	}
	if c.SpatialIndex != nil {
		opts.SpatialIndex = *c.SpatialIndex
	}
	return opts
}

// Requests converts Layers into load requests rooted at dir.
// A layer without a table takes its name from inferName applied to the file.
func (c *ProjectConfig) Requests(dir string, inferName func(path string) (string, error)) ([]shpload.LoadRequest, error) {
	if c == nil {
		return nil, nil
	}

	reqs := make([]shpload.LoadRequest, 0, len(c.Layers))
	var errs []error
	for i, l := range c.Layers {
		if l.File == "" {
			errs = append(errs, fmt.Errorf("layers[%d]: file is required: %w", i, shpload.ErrInvalidConfig))
			continue
		}
		if l.Replace && l.Append {
			errs = append(errs, fmt.Errorf("layers[%d]: replace and append are mutually exclusive: %w", i, shpload.ErrInvalidConfig))
			continue
		}

		path := l.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}

		table := shpload.ParseTableName(l.Table)
		if l.Table == "" {
			name, err := inferName(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("layers[%d]: %w", i, err))
				continue
			}
			table = shpload.TableName{Name: name}
		}
		if !strings.Contains(l.Table, ".") {
			table.Schema = c.Schema
		}
		table = table.WithDefaultSchema(shpload.DefaultSchema)

		target := l.TargetSRID
		if target == 0 {
			target = c.TargetSRID
		}

		reqs = append(reqs, shpload.LoadRequest{
			Source:     path,
			Table:      table,
			Replace:    l.Replace,
			Append:     l.Append,
			SRID:       l.SRID,
			TargetSRID: target,
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return reqs, nil
}
