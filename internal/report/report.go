package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/hamed0406/credcheck/internal/domain"
)

// WriteCSV writes one row per account in input order. The credential column
// is intentionally unmasked: the CSV is the operator's key inventory.
// encoding/csv quotes any field containing the delimiter.
func WriteCSV(w io.Writer, results []domain.AccountResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "endpoint", "credential", "primary", "secondary"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Account.Name,
			r.Account.Endpoint,
			r.Account.Credential,
			passFail(r.Primary.Status),
			secondaryStatus(r.Secondary.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSVFile(path string, results []domain.AccountResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSONFile persists the full run document.
func WriteJSONFile(path string, run domain.BatchRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func passFail(s domain.ProbeStatus) string {
	if s == domain.StatusSuccess {
		return "pass"
	}
	return "fail"
}

func secondaryStatus(s domain.ProbeStatus) string {
	switch s {
	case domain.StatusSuccess:
		return "pass"
	case domain.StatusSkipped:
		return "skipped"
	default:
		return "fail"
	}
}
