package storage

import (
	"encoding/json"
	"io"
)

// ExportData is the JSON shape produced by ExportJSON.
type ExportData struct {
	CaseID  string             `json:"case_id"`
	Samples int                `json:"samples"`
	Results map[string]float64 `json:"results,omitempty"`
	Records []Record           `json:"records"`
}

// ExportJSON writes the recorded series for a case, plus optional analysis
// results, as indented JSON.
func (s *Store) ExportJSON(caseID string, results map[string]float64, w io.Writer) error {
	records, err := s.Read(caseID)
	if err != nil {
		return err
	}

	data := ExportData{
		CaseID:  caseID,
		Samples: len(records),
		Results: results,
		Records: records,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
