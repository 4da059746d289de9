package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/vvka-141/shpload/pkg/shpload"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NAME", "name"},
		{"Land Use", "land_use"},
		{"pop--2020", "pop_2020"},
		{"2020_POP", "_2020_pop"},
		{"__x__", "x"},
		{"Zoning (Final)", "zoning_final"},
		{"über", "ber"},
		{"", ""},
		{strings.Repeat("a", 70), strings.Repeat("a", shpload.MaxIdentifierLength)},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInferTableName(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/data/Cities.shp", "cities", false},
		{"data/Census Tracts 2020.SHP", "census_tracts_2020", false},
		{"001_parcels.shp", "_001_parcels", false},
		{"/data/---.shp", "", true},
	}
	for _, tt := range tests {
		got, err := InferTableName(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("InferTableName(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("InferTableName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"zones", "_x", "Tracts2020", strings.Repeat("a", 63)}
	for _, s := range valid {
		if err := ValidateIdentifier(s); err != nil {
			t.Errorf("ValidateIdentifier(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{"", "1zones", "zones;drop", "a b", `"q"`, strings.Repeat("a", 64)}
	for _, s := range invalid {
		err := ValidateIdentifier(s)
		if err == nil {
			t.Errorf("ValidateIdentifier(%q) = nil, want error", s)
			continue
		}
		if !errors.Is(err, shpload.ErrInvalidRequest) {
			t.Errorf("ValidateIdentifier(%q) error should wrap ErrInvalidRequest, got %v", s, err)
		}
	}
}

func TestValidateTableName(t *testing.T) {
	if err := ValidateTableName(shpload.TableName{Name: "zones"}); err != nil {
		t.Errorf("default schema should validate: %v", err)
	}
	if err := ValidateTableName(shpload.TableName{Schema: "bad-schema", Name: "zones"}); err == nil {
		t.Error("expected schema validation error")
	}
}
