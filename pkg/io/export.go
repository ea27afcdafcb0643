package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/licensetower/pkg/core/scan"
	"github.com/matzehuels/licensetower/pkg/errors"
)

// FormatVersion is the report format written by WriteJSON.
const FormatVersion = 1

type report struct {
	FormatVersion int            `json:"format_version"`
	Results       []*scan.Result `json:"results"`
}

// WriteJSON encodes results as an indented report.
func WriteJSON(w io.Writer, results ...*scan.Result) error {
	if results == nil {
		results = []*scan.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report{FormatVersion: FormatVersion, Results: results}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode report")
	}
	return nil
}

// ExportJSON writes results to a report file at path.
func ExportJSON(path string, results ...*scan.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := WriteJSON(f, results...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", path)
	}
	return nil
}
