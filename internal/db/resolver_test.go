package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/shpload/internal/config"
	"github.com/vvka-141/shpload/pkg/shpload"
)

func TestResolve_ConnectionFlagWins(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "postgresql://env@envhost/envdb", SHPLOAD_CONNECTION_STRING: "postgresql://x@y/z"}

	cfg, err := ResolveConnectionParams("postgresql://flag@flaghost:5433/flagdb", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "flagdb", cfg.Database)
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestResolve_ConnectionStringEnvPrecedence(t *testing.T) {
	env := &EnvVars{
		DATABASE_URL:              "postgresql://env@dburl/one",
		SHPLOAD_CONNECTION_STRING: "postgresql://env@shpload/two",
	}
	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "shpload", cfg.Host)

	env.SHPLOAD_CONNECTION_STRING = ""
	cfg, err = ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "dburl", cfg.Host)
}

func TestResolve_DatabaseFlagOverridesConnectionString(t *testing.T) {
	cfg, err := ResolveConnectionParams("postgresql://u@h/postgres", &GranularConnFlags{Database: "gis"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "gis", cfg.Database)
}

func TestResolve_ConflictingFlags(t *testing.T) {
	_, err := ResolveConnectionParams("postgresql://u@h/d", &GranularConnFlags{Host: "other"}, nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shpload.ErrInvalidConfig)
}

func TestResolve_GranularPrecedence(t *testing.T) {
	env := &EnvVars{PGHOST: "envhost", PGPORT: "6000", PGUSER: "envuser", PGPASSWORD: "envpw", PGDATABASE: "envdb"}
	pc := &config.ProjectConfig{Connection: config.ConnectionConfig{Host: "yamlhost", Port: 7000, Username: "yamluser", Database: "yamldb", SSLMode: "require"}}

	cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "flaghost"}, nil, env, pc)
	require.NoError(t, err)

	assert.Equal(t, "flaghost", cfg.Host)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "envuser", cfg.Username)
	assert.Equal(t, "envpw", cfg.Password)
	assert.Equal(t, "envdb", cfg.Database)
	assert.Equal(t, "require", cfg.SSLMode)
}

func TestResolve_YAMLFallback(t *testing.T) {
	pc := &config.ProjectConfig{Connection: config.ConnectionConfig{Host: "yamlhost", Port: 7000, Username: "yamluser", Database: "yamldb"}}

	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, pc)
	require.NoError(t, err)

	assert.Equal(t, "yamlhost", cfg.Host)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "yamluser", cfg.Username)
	assert.Equal(t, "yamldb", cfg.Database)
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestResolve_Defaults(t *testing.T) {
	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, shpload.DefaultManagementDB, cfg.Database)
	assert.Equal(t, shpload.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolve_InvalidPGPORT(t *testing.T) {
	_, err := ResolveConnectionParams("", nil, nil, &EnvVars{PGPORT: "abc"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$PGPORT")
}

func TestResolve_AzureFromEnvironment(t *testing.T) {
	env := &EnvVars{PGHOST: "x.postgres.database.azure.com", AZURE_TENANT_ID: "t", AZURE_CLIENT_ID: "c", AZURE_CLIENT_SECRET: "s"}

	cfg, err := ResolveConnectionParams("", nil, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, shpload.AuthMethodAzureEntraID, cfg.AuthMethod)
	assert.Equal(t, "t", cfg.AzureTenantID)
	assert.Equal(t, "c", cfg.AzureClientID)
	assert.Equal(t, "s", cfg.AzureClientSecret)
}

func TestResolve_AWSFromFlag(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "rds", Username: "iam_user"},
		&CloudFlags{AuthMethod: "aws"}, &EnvVars{AWS_REGION: "eu-west-1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, shpload.AuthMethodAWSIAM, cfg.AuthMethod)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)
}

func TestResolve_GoogleFromYAML(t *testing.T) {
	pc := &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i", Username: "sa@p.iam"}}

	cfg, err := ResolveConnectionParams("", nil, nil, &EnvVars{}, pc)
	require.NoError(t, err)

	assert.Equal(t, shpload.AuthMethodGoogleIAM, cfg.AuthMethod)
	assert.Equal(t, "p:r:i", cfg.GoogleInstance)
}

func TestResolve_CertificateFromFlags(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{SSLCert: "/c.crt", SSLKey: "/c.key", SSLMode: "verify-full"}, nil, &EnvVars{}, nil)
	require.NoError(t, err)
	assert.Equal(t, shpload.AuthMethodCertificate, cfg.AuthMethod)
}

func TestResolve_UnknownAuthMethod(t *testing.T) {
	_, err := ResolveConnectionParams("", nil, &CloudFlags{AuthMethod: "kerberos"}, &EnvVars{}, nil)
	assert.ErrorIs(t, err, shpload.ErrUnsupportedAuthMethod)
}

func TestParseAuthMethod(t *testing.T) {
	tests := map[string]shpload.AuthMethod{
		"":            shpload.AuthMethodStandard,
		"Certificate": shpload.AuthMethodCertificate,
		"aws-iam":     shpload.AuthMethodAWSIAM,
		"gcp":         shpload.AuthMethodGoogleIAM,
		"entra":       shpload.AuthMethodAzureEntraID,
	}
	for in, want := range tests {
		got, err := ParseAuthMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
