package scanner

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/vvka-141/shpload/internal/files/filesystem"
	"github.com/vvka-141/shpload/internal/schema"
	"github.com/vvka-141/shpload/pkg/shpload"
)

// Dataset is a discovered shapefile.
type Dataset struct {
	// Path is the absolute path to the .shp file.
	Path string

	// RelativePath is slash-separated and relative to the scan root.
	RelativePath string

	// Table is the table name inferred from the base name.
	Table string

	SizeBytes int64
}

// Scanner finds shapefiles. It is safe for concurrent use as long as the
// filesystem provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a scanner over a custom filesystem provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// ScanDirectory returns the shapefiles under root, sorted by relative path.
// Without recursive only root's own files are returned.
func (s *Scanner) ScanDirectory(root string, recursive bool) ([]Dataset, error) {
	dir, err := s.fsProvider.Open(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}

	var datasets []Dataset
	byTable := make(map[string]string)

	err = dir.Walk(func(e filesystem.Entry, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}

		info := e.Info()
		if info.IsDir() {
			if e.RelativePath() == "." {
				return nil
			}
			if !recursive || strings.HasPrefix(info.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		if !IsShapefile(info.Name()) {
			return nil
		}

		table, err := schema.InferTableName(info.Name())
		if err != nil {
			return fmt.Errorf("%s: %w", e.RelativePath(), err)
		}
		if prev, dup := byTable[table]; dup {
			return fmt.Errorf("%s and %s both map to table %q: %w", prev, e.RelativePath(), table, shpload.ErrInvalidConfig)
		}
		byTable[table] = e.RelativePath()

		datasets = append(datasets, Dataset{
			Path:         e.Path(),
			RelativePath: e.RelativePath(),
			Table:        table,
			SizeBytes:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].RelativePath < datasets[j].RelativePath
	})
	return datasets, nil
}

// IsShapefile reports whether name has a .shp extension in any case.
func IsShapefile(name string) bool {
	return strings.EqualFold(path.Ext(name), shpload.ShapefileExtension)
}

// Requests turns datasets into load requests against schemaName.
func Requests(datasets []Dataset, schemaName string, replace, appendRows bool) []shpload.LoadRequest {
	reqs := make([]shpload.LoadRequest, len(datasets))
	for i, d := range datasets {
		reqs[i] = shpload.LoadRequest{
			Source:  d.Path,
			Table:   shpload.TableName{Schema: schemaName, Name: d.Table}.WithDefaultSchema(""),
			Replace: replace,
			Append:  appendRows && !replace,
		}
	}
	return reqs
}
