package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// GranularConnFlags holds the PostgreSQL-style connection flags (-h, -p, -U, -d).
// Passwords are not accepted as flags; use $PGPASSWORD or a connection string.
type GranularConnFlags struct {
	Host        string
	Port        int
	Username    string
	Database    string
	SSLMode     string
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

// IsEmpty reports whether no host-identifying flag was given.
// Database is excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == "" && g.SSLCert == ""
}

// CloudFlags select and configure cloud IAM authentication.
// The Azure client secret is only read from $AZURE_CLIENT_SECRET.
type CloudFlags struct {
	AuthMethod     string
	AzureTenantID  string
	AzureClientID  string
	AWSRegion      string
	GoogleInstance string
}

// EnvVars are the environment variables consulted during resolution.
type EnvVars struct {
	PGHOST                    string
	PGPORT                    string
	PGUSER                    string
	PGPASSWORD                string
	PGDATABASE                string
	PGSSLMODE                 string
	DATABASE_URL              string
	SHPLOAD_CONNECTION_STRING string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
	AWS_REGION          string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                    os.Getenv("PGHOST"),
		PGPORT:                    os.Getenv("PGPORT"),
		PGUSER:                    os.Getenv("PGUSER"),
		PGPASSWORD:                os.Getenv("PGPASSWORD"),
		PGDATABASE:                os.Getenv("PGDATABASE"),
		PGSSLMODE:                 os.Getenv("PGSSLMODE"),
		DATABASE_URL:              os.Getenv("DATABASE_URL"),
		SHPLOAD_CONNECTION_STRING: os.Getenv("SHPLOAD_CONNECTION_STRING"),
		AZURE_TENANT_ID:           os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:           os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:       os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                os.Getenv("AWS_REGION"),
	}
}

// ParseAuthMethod maps a flag or YAML value to an AuthMethod. Empty means Standard.
func ParseAuthMethod(s string) (shpload.AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return shpload.AuthMethodStandard, nil
	case "cert", "certificate", "mtls":
		return shpload.AuthMethodCertificate, nil
	case "aws", "aws-iam", "awsiam":
		return shpload.AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam", "cloudsql":
		return shpload.AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id", "entraid":
		return shpload.AuthMethodAzureEntraID, nil
	default:
		return 0, fmt.Errorf("unknown auth method %q: %w", s, shpload.ErrUnsupportedAuthMethod)
	}
}

// ResolveConnectionParams resolves the connection with PostgreSQL-standard precedence:
//
//  1. --connection flag
//  2. granular flags (-h, -p, -U, -d), each falling back to PG* env vars, then shpload.yaml
//  3. $SHPLOAD_CONNECTION_STRING, then $DATABASE_URL, when no granular flag is set
//  4. defaults (localhost:5432, sslmode=prefer)
//
// Giving both --connection and granular flags is an error.
// Cloud auth is chosen by flag, then shpload.yaml, then the presence of Azure variables.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*shpload.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/gis\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d gis\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			shpload.ErrInvalidConfig,
		)
	}

	connStr := connStringFlag
	if connStr == "" && granularFlags.IsEmpty() {
		connStr = envVars.SHPLOAD_CONNECTION_STRING
		if connStr == "" {
			connStr = envVars.DATABASE_URL
		}
	}

	var (
		cfg *shpload.ConnectionConfig
		err error
	)
	if connStr != "" {
		cfg, err = resolveFromConnectionString(connStr, envVars)
		if err == nil && granularFlags.Database != "" {
			cfg.Database = granularFlags.Database
		}
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyCloudAuth(cfg *shpload.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	methodName := firstNonEmpty(flags.AuthMethod, pc.AuthMethod)
	method, err := ParseAuthMethod(methodName)
	if err != nil {
		return err
	}

	tenantID := firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	clientID := firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
	if methodName == "" {
		switch {
		case tenantID != "" || clientID != "":
			method = shpload.AuthMethodAzureEntraID
		case cfg.SSLCert != "":
			method = shpload.AuthMethodCertificate
		}
	}

	cfg.AuthMethod = method
	switch method {
	case shpload.AuthMethodAzureEntraID:
		cfg.AzureTenantID = tenantID
		cfg.AzureClientID = clientID
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case shpload.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case shpload.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	}
	return nil
}

func resolveFromConnectionString(connStr string, envVars *EnvVars) (*shpload.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w: %w", err, shpload.ErrInvalidConfig)
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = firstNonEmpty(envVars.PGSSLMODE, "prefer")
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}
	return cfg, nil
}

// resolveFromGranularParams applies flag > env > shpload.yaml > default per field.
func resolveFromGranularParams(flags *GranularConnFlags, env *EnvVars, pc config.ConnectionConfig) (*shpload.ConnectionConfig, error) {
	cfg := &shpload.ConnectionConfig{
		AuthMethod:       shpload.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, env.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := strconv.Atoi(env.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", env.PGPORT, shpload.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = defaultPort
	}

	cfg.Username = firstNonEmpty(flags.Username, env.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = env.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, env.PGDATABASE, pc.Database, shpload.DefaultManagementDB)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, env.PGSSLMODE, pc.SSLMode, "prefer")
	cfg.SSLCert = firstNonEmpty(flags.SSLCert, pc.SSLCert)
	cfg.SSLKey = firstNonEmpty(flags.SSLKey, pc.SSLKey)
	cfg.SSLRootCert = firstNonEmpty(flags.SSLRootCert, pc.SSLRootCert)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
