package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vvka-141/shpload/pkg/shpload"
)

type mockTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
	calls     int
}

func (m *mockTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	m.calls++
	if m.err != nil {
		return "", time.Time{}, m.err
	}
	return m.token, m.expiresOn, nil
}

func (m *mockTokenProvider) String() string {
	return "mockTokenProvider"
}

func TestNewConnector_Factory(t *testing.T) {
	tests := []struct {
		name    string
		config  *shpload.ConnectionConfig
		wantErr error
		check   func(t *testing.T, c shpload.Connector)
	}{
		{
			name:   "standard",
			config: &shpload.ConnectionConfig{Host: "localhost", Port: 5432, AuthMethod: shpload.AuthMethodStandard},
			check: func(t *testing.T, c shpload.Connector) {
				if _, ok := c.(*StandardConnector); !ok {
					t.Errorf("got %T, want *StandardConnector", c)
				}
			},
		},
		{
			name:   "certificate uses standard connector",
			config: &shpload.ConnectionConfig{Host: "localhost", Port: 5432, SSLCert: "/c.crt", AuthMethod: shpload.AuthMethodCertificate},
			check: func(t *testing.T, c shpload.Connector) {
				if _, ok := c.(*StandardConnector); !ok {
					t.Errorf("got %T, want *StandardConnector", c)
				}
			},
		},
		{
			name:   "aws",
			config: &shpload.ConnectionConfig{Host: "rds", Port: 5432, Username: "u", AWSRegion: "us-east-1", AuthMethod: shpload.AuthMethodAWSIAM},
			check: func(t *testing.T, c shpload.Connector) {
				tc, ok := c.(*TokenBasedConnector)
				if !ok {
					t.Fatalf("got %T, want *TokenBasedConnector", c)
				}
				if tc.providerName != "AWS IAM" {
					t.Errorf("providerName = %q", tc.providerName)
				}
			},
		},
		{
			name:    "aws without region",
			config:  &shpload.ConnectionConfig{Host: "rds", Port: 5432, Username: "u", AuthMethod: shpload.AuthMethodAWSIAM},
			wantErr: errors.New("region"),
		},
		{
			name:   "google",
			config: &shpload.ConnectionConfig{Username: "sa", GoogleInstance: "p:r:i", AuthMethod: shpload.AuthMethodGoogleIAM},
			check: func(t *testing.T, c shpload.Connector) {
				if _, ok := c.(*GoogleCloudSQLConnector); !ok {
					t.Errorf("got %T, want *GoogleCloudSQLConnector", c)
				}
			},
		},
		{
			name:    "google without instance",
			config:  &shpload.ConnectionConfig{Username: "sa", AuthMethod: shpload.AuthMethodGoogleIAM},
			wantErr: shpload.ErrInvalidConfig,
		},
		{
			name:   "azure service principal",
			config: &shpload.ConnectionConfig{Host: "x", Port: 5432, AzureTenantID: "t", AzureClientID: "c", AzureClientSecret: "s", AuthMethod: shpload.AuthMethodAzureEntraID},
			check: func(t *testing.T, c shpload.Connector) {
				tc, ok := c.(*TokenBasedConnector)
				if !ok {
					t.Fatalf("got %T, want *TokenBasedConnector", c)
				}
				if !strings.HasPrefix(tc.tokenProvider.String(), "AzureServicePrincipal") {
					t.Errorf("provider = %s", tc.tokenProvider)
				}
			},
		},
		{
			name:    "unknown",
			config:  &shpload.ConnectionConfig{AuthMethod: shpload.AuthMethod(99)},
			wantErr: shpload.ErrUnsupportedAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConnector(tt.config, nil)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestTokenBasedConnector_TokenFailureIsNotRetried(t *testing.T) {
	provider := &mockTokenProvider{err: errors.New("credentials expired")}
	connector := NewTokenBasedConnector(&shpload.ConnectionConfig{Host: "h", Port: 5432}, provider, "Azure", nil)

	_, err := connector.Connect(context.Background())

	if !errors.Is(err, shpload.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to acquire Azure token") {
		t.Errorf("missing provider context: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("GetToken called %d times, want 1", provider.calls)
	}
}

func TestStandardConnector_RespectsContextTimeout(t *testing.T) {
	connector := NewStandardConnector(&shpload.ConnectionConfig{
		Host:     "nonexistent.invalid",
		Port:     5432,
		Database: "gis",
		Username: "loader",
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := connector.Connect(ctx)

	if err == nil {
		t.Fatal("expected connection error")
	}
	if !errors.Is(err, shpload.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("connect ignored context deadline, took %v", elapsed)
	}
}

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name         string
		errMsg       string
		wantContains string
	}{
		{"refused", "dial tcp 127.0.0.1:5432: connection refused", "connection refused to db:5432"},
		{"windows refused", "No connection could be made because the target machine actively refused it", "connection refused to db:5432"},
		{"no such host", "lookup db: no such host", `cannot resolve host "db"`},
		{"password", `password authentication failed for user "x"`, `password authentication failed for database "gis"`},
		{"missing db", `database "gis" does not exist`, "CREATE EXTENSION postgis"},
		{"timeout", "i/o timeout", "connection timed out to db:5432"},
		{"tls", "tls: bad certificate", "SSL/TLS connection error"},
		{"other", "weird", "failed to connect to database"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := errors.New(tt.errMsg)
			err := wrapConnectionError(orig, "db", 5432, "gis")

			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("error %q does not contain %q", err, tt.wantContains)
			}
			if !errors.Is(err, orig) {
				t.Error("original error not wrapped")
			}
		})
	}
}

func TestNewAWSIAMTokenProvider_Validation(t *testing.T) {
	if _, err := NewAWSIAMTokenProvider("", "r", "u"); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if _, err := NewAWSIAMTokenProvider("h:5432", "", "u"); err == nil {
		t.Error("expected error for empty region")
	}
	if _, err := NewAWSIAMTokenProvider("h:5432", "r", ""); err == nil {
		t.Error("expected error for empty username")
	}
	p, err := NewAWSIAMTokenProvider("h:5432", "us-east-1", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p.String(), "us-east-1") {
		t.Errorf("String() = %s", p)
	}
}

func TestNewAzureServicePrincipalProvider_RequiresAllParams(t *testing.T) {
	if _, err := NewAzureServicePrincipalProvider("", "c", "s"); err == nil {
		t.Error("expected error for missing tenant")
	}
	p, err := NewAzureServicePrincipalProvider("t", "c", "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(p.String(), "s)") {
		t.Errorf("String() leaks secret: %s", p)
	}
}
