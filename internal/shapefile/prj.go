package shapefile

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// knownCRS maps ESRI WKT names to EPSG codes for the common cases.
var knownCRS = map[string]int{
	"GCS_WGS_1984":                          4326,
	"WGS 84":                                4326,
	"GCS_North_American_1983":               4269,
	"NAD83":                                 4269,
	"GCS_ETRS_1989":                         4258,
	"WGS_1984_Web_Mercator":                 3857,
	"WGS_1984_Web_Mercator_Auxiliary_Sphere": 3857,
	"WGS 84 / Pseudo-Mercator":              3857,
}

var (
	// AUTHORITY["EPSG","4326"] as the last authority in the WKT.
	epsgAuthority = regexp.MustCompile(`AUTHORITY\["EPSG",\s*"?(\d+)"?\]\s*\]\s*$`)
	// First PROJCS or GEOGCS name.
	crsName = regexp.MustCompile(`^\s*(?:PROJCS|GEOGCS)\["([^"]+)"`)
	utmZone = regexp.MustCompile(`^WGS_1984_UTM_Zone_(\d{1,2})([NS])$`)
)

// detectSRID guesses an EPSG code from the .prj sidecar. Returns 0 when unknown.
func detectSRID(path string) int {
	prj, err := sidecar(path, ".prj")
	if err != nil {
		return 0
	}
	raw, err := os.ReadFile(prj)
	if err != nil {
		return 0
	}
	return sridFromWKT(string(raw))
}

func sridFromWKT(wkt string) int {
	wkt = strings.TrimSpace(wkt)
	if m := epsgAuthority.FindStringSubmatch(wkt); m != nil {
		if code, err := strconv.Atoi(m[1]); err == nil {
			return code
		}
	}
	m := crsName.FindStringSubmatch(wkt)
	if m == nil {
		return 0
	}
	if code, ok := knownCRS[m[1]]; ok {
		return code
	}
	if z := utmZone.FindStringSubmatch(m[1]); z != nil {
		zone, _ := strconv.Atoi(z[1])
		if zone < 1 || zone > 60 {
			return 0
		}
		if z[2] == "N" {
			return 32600 + zone
		}
		return 32700 + zone
	}
	return 0
}
