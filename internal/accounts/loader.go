package accounts

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/credcheck/internal/domain"
)

// Any error here is fatal: the whole run aborts before a single probe is
// spawned. Probe failures, by contrast, never abort the batch.

var validate = validator.New()

// Load reads an ordered account list from a CSV, JSON or YAML file,
// dispatching on the extension (CSV is the default).
func Load(path string) ([]domain.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return ParseCSV(f)
	}
}

// ParseCSV expects name,endpoint,credential rows. A leading header row with
// a "name" first cell is tolerated and skipped.
func ParseCSV(r io.Reader) ([]domain.Account, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse accounts csv: %w", err)
	}

	out := make([]domain.Account, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "name") {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("accounts csv row %d: want name,endpoint,credential, got %d fields", i+1, len(row))
		}
		out = append(out, domain.Account{
			Name:       strings.TrimSpace(row[0]),
			Endpoint:   strings.TrimSpace(row[1]),
			Credential: strings.TrimSpace(row[2]),
		})
	}
	return checkAll(out)
}

func ParseJSON(r io.Reader) ([]domain.Account, error) {
	var out []domain.Account
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse accounts json: %w", err)
	}
	return checkAll(out)
}

func ParseYAML(r io.Reader) ([]domain.Account, error) {
	var out []domain.Account
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("parse accounts yaml: %w", err)
	}
	return checkAll(out)
}

// Check validates an already-assembled account list the same way the file
// loaders do: non-empty, every field present, endpoint a URL.
func Check(accts []domain.Account) ([]domain.Account, error) {
	return checkAll(accts)
}

func checkAll(accts []domain.Account) ([]domain.Account, error) {
	if len(accts) == 0 {
		return nil, errors.New("account list is empty")
	}
	for i, a := range accts {
		if err := validate.Struct(a); err != nil {
			return nil, fmt.Errorf("account %d (%q): %w", i+1, a.Name, err)
		}
	}
	return accts, nil
}
