package shpload

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TableName is a schema-qualified target table.
type TableName struct {
	Schema string
	Name   string
}

// ParseTableName splits "schema.table" or "table".
// An empty schema resolves to DefaultSchema. Identifiers are not validated here.
func ParseTableName(s string) TableName {
	s = strings.TrimSpace(s)
	if schema, name, ok := strings.Cut(s, "."); ok {
		if schema == "" {
			schema = DefaultSchema
		}
		return TableName{Schema: schema, Name: name}
	}
	return TableName{Schema: DefaultSchema, Name: s}
}

// String returns schema.name without quoting.
func (t TableName) String() string {
	schema := t.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	return schema + "." + t.Name
}

// WithDefaultSchema fills an empty schema.
func (t TableName) WithDefaultSchema(schema string) TableName {
	if t.Schema == "" {
		if schema == "" {
			schema = DefaultSchema
		}
		t.Schema = schema
	}
	return t
}

// LoadRequest pairs a source file with a target table.
type LoadRequest struct {
	// Source is the path to the .shp file; sidecars (.dbf, .cpg) are resolved next to it.
	Source string

	// Table is the destination table.
	Table TableName

	// Replace drops an existing table of the same name before loading.
	Replace bool

	// Append inserts into an existing table whose columns match the source.
	// Ignored when Replace is set. When neither is set, an existing table
	// fails the load with ErrTableExists.
	Append bool

	// SRID of the source coordinates. Zero means Options.SRID.
	SRID int

	// TargetSRID reprojects geometries on insert when it differs from SRID. Zero disables.
	TargetSRID int
}

// Validate checks that the request names a source and a table.
func (r LoadRequest) Validate() error {
	var errs []error

	if strings.TrimSpace(r.Source) == "" {
		errs = append(errs, fmt.Errorf("source path is required: %w", ErrInvalidRequest))
	}
	if strings.TrimSpace(r.Table.Name) == "" {
		errs = append(errs, fmt.Errorf("table name is required: %w", ErrInvalidRequest))
	}
	if r.SRID < 0 || r.TargetSRID < 0 {
		errs = append(errs, fmt.Errorf("srid cannot be negative: %w", ErrInvalidRequest))
	}

	return errors.Join(errs...)
}

// LoadResult reports a completed load.
type LoadResult struct {
	LoadID   uuid.UUID
	Table    TableName
	Source   string
	Rows     int64
	Replaced bool
	Appended bool
	Duration time.Duration
}

// Options tune how the loader builds tables.
type Options struct {
	// GeometryColumn names the geometry column. Defaults to DefaultGeometryColumn.
	GeometryColumn string

	// SRID is the source SRID for requests that set none and have no
	// recognizable .prj. Zero leaves such sources at UnknownSRID.
	SRID int

	// BatchSize is the number of inserts per pgx batch.
	BatchSize int

	// SpatialIndex creates a GiST index on the geometry column after loading.
	SpatialIndex bool

	// Analyze runs ANALYZE on the table after loading.
	Analyze bool
}

// DefaultOptions returns the options used by the CLI when nothing is overridden.
func DefaultOptions() Options {
	return Options{
		GeometryColumn: DefaultGeometryColumn,
		BatchSize:      DefaultBatchSize,
		SpatialIndex:   true,
		Analyze:        true,
	}
}

// WithDefaults fills zero-valued fields.
func (o Options) WithDefaults() Options {
	if o.GeometryColumn == "" {
		o.GeometryColumn = DefaultGeometryColumn
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// RunConfig contains all parameters needed for a CLI load run.
type RunConfig struct {
	// Requests are executed in order.
	Requests []LoadRequest

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format).
	ConnectionString string

	// Options apply to every request.
	Options Options

	// Force skips interactive approval of table replacement.
	Force bool

	// CreateExtension runs CREATE EXTENSION IF NOT EXISTS postgis before loading.
	CreateExtension bool

	// RecordHistory appends a row per successful load to the history table.
	RecordHistory bool

	// Timeout is the global timeout for the entire run.
	Timeout time.Duration

	// Verbose enables detailed logging.
	Verbose bool

	// Connection carries auth-method specific settings resolved by the CLI.
	Connection *ConnectionConfig
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if len(c.Requests) == 0 {
		errs = append(errs, fmt.Errorf("at least one load request is required: %w", ErrInvalidConfig))
	}
	if c.ConnectionString == "" && c.Connection == nil {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if c.Options.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}

	seen := make(map[string]int, len(c.Requests))
	for i, r := range c.Requests {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i+1, err))
			continue
		}
		key := strings.ToLower(r.Table.String())
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("requests %d and %d both target %s: %w", prev+1, i+1, r.Table, ErrInvalidConfig))
		}
		seen[key] = i
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Client certificate paths for mTLS
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID parameters. If all three are set, Service Principal auth is used;
	// otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for AWS RDS IAM authentication.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
