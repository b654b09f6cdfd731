package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/opsreport/pkg/domain/services"
)

// Discovery maps configured sources to the files found for them
type Discovery struct {
	Sources      map[string]string // source name -> path
	Unconfigured []string          // extract files no source claims
	Duplicates   []string          // extra files for an already resolved source
}

// Discover scans dir for XLSX and CSV extracts and resolves each file to a
// source by its name, its stem, or the source name itself. Files are visited
// in name order; the first file for a source wins.
func Discover(dir string, aliases map[string][]string) (*Discovery, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	lookup := make(map[string]string)
	for source, names := range aliases {
		lookup[stem(source)] = source
		for _, name := range names {
			lookup[stem(name)] = source
		}
	}

	d := &Discovery{Sources: make(map[string]string)}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		if !IsExtract(name) {
			continue
		}
		path := filepath.Join(dir, name)
		source, ok := lookup[stem(name)]
		if !ok {
			d.Unconfigured = append(d.Unconfigured, path)
			continue
		}
		if _, taken := d.Sources[source]; taken {
			d.Duplicates = append(d.Duplicates, path)
			continue
		}
		d.Sources[source] = path
	}
	return d, nil
}

// IsExtract reports whether a file name has a supported extension
func IsExtract(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

func stem(name string) string {
	base := filepath.Base(services.Normalize(name))
	if IsExtract(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return strings.ToLower(base)
}
