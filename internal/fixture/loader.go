/**
 * @description
 * Reads externally supplied test inputs. Tabular fixtures are Excel workbooks
 * (sheet name, header row, data rows); hierarchical fixtures are JSON or YAML
 * documents with named sections that hold one record or an array of records.
 *
 * @dependencies
 * - github.com/xuri/excelize/v2: workbook parsing.
 * - gopkg.in/yaml.v3: YAML documents.
 *
 * @notes
 * - Every missing file, sheet or section surfaces as *domain.FixtureNotFoundError
 *   so only the scenarios that depend on it fail.
 */
package fixture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Loader resolves fixture resources relative to its directories.
type Loader struct {
	jsonDir  string
	excelDir string
}

// NewLoader returns a Loader. jsonDir holds JSON/YAML documents and excelDir
// holds workbooks; they may be the same directory.
func NewLoader(jsonDir, excelDir string) *Loader {
	return &Loader{jsonDir: jsonDir, excelDir: excelDir}
}

func resolve(dir, resource string) string {
	if filepath.IsAbs(resource) || dir == "" {
		return resource
	}
	return filepath.Join(dir, resource)
}

// LoadTable reads sheet from the workbook resource. The first row is the
// header; cells missing from shorter rows read as "".
func (l *Loader) LoadTable(resource, sheet string) ([]Row, error) {
	path := resolve(l.excelDir, resource)
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.FixtureNotFoundError{Resource: resource, Err: err}
		}
		return nil, fmt.Errorf("open workbook %s: %w", resource, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, &domain.FixtureNotFoundError{Resource: resource, Sheet: sheet, Err: err}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s/%s: %w", resource, sheet, err)
	}
	if len(rows) == 0 {
		return []Row{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := make([]Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = strings.TrimSpace(cells[i])
			} else {
				row[h] = ""
			}
		}
		table = append(table, row)
	}
	return table, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LoadRecords reads section key from a JSON or YAML document and decodes it
// into T using T's json tags. A section may hold a single object or an array.
func LoadRecords[T any](l *Loader, resource, key string) ([]T, error) {
	path := resolve(l.jsonDir, resource)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.FixtureNotFoundError{Resource: resource, Err: err}
		}
		return nil, fmt.Errorf("read fixture %s: %w", resource, err)
	}

	section, err := extractSection(resource, raw, key)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(section)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []T
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode %s[%s]: %w", resource, key, err)
		}
		return records, nil
	}

	var record T
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("decode %s[%s]: %w", resource, key, err)
	}
	return []T{record}, nil
}

// extractSection returns the JSON encoding of document[key].
func extractSection(resource string, raw []byte, key string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(resource)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", resource, err)
		}
		value, ok := doc[key]
		if !ok || value == nil {
			return nil, &domain.FixtureNotFoundError{Resource: resource, Key: key}
		}
		section, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("convert %s[%s]: %w", resource, key, err)
		}
		return section, nil
	default:
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", resource, err)
		}
		section, ok := doc[key]
		if !ok || string(bytes.TrimSpace(section)) == "null" {
			return nil, &domain.FixtureNotFoundError{Resource: resource, Key: key}
		}
		return section, nil
	}
}
