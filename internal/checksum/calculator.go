package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Calculator computes content checksums.
type Calculator interface {
	// CalculateRaw computes a checksum of content.
	CalculateRaw(content []byte) string

	// CalculateDataset computes a checksum over a shapefile and its sidecars.
	CalculateDataset(shpPath string) (string, error)
}

// DatasetMembers lists the sidecar extensions included in a dataset checksum, in order.
var DatasetMembers = []string{".shp", ".shx", ".dbf", ".cpg", ".prj"}

// SHA256 implements Calculator using SHA-256.
// It is a zero-size type and is safe for concurrent use.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateDataset hashes the members of the dataset at shpPath.
// The .shp must exist; other members are skipped when absent.
func (c SHA256) CalculateDataset(shpPath string) (string, error) {
	base := strings.TrimSuffix(shpPath, filepath.Ext(shpPath))
	h := sha256.New()

	for i, ext := range DatasetMembers {
		path, ok := findMember(base, ext)
		if !ok {
			if i == 0 {
				return "", fmt.Errorf("checksum %s: file not found", shpPath)
			}
			continue
		}
		if err := hashMember(h, ext, path); err != nil {
			return "", fmt.Errorf("checksum %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func findMember(base, ext string) (string, bool) {
	for _, candidate := range []string{base + ext, base + strings.ToUpper(ext)} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func hashMember(w io.Writer, ext, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(info.Size()))
	io.WriteString(w, ext) //nolint:errcheck
	w.Write(size[:])       //nolint:errcheck
	_, err = io.Copy(w, f)
	return err
}
