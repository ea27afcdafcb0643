package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/licensetower/pkg/core/scan"
	"github.com/matzehuels/licensetower/pkg/errors"
)

// ReadJSON decodes a report written by [WriteJSON].
//
// It fails with PARSE_ERROR on malformed JSON, an unsupported format
// version, or a package without a name. Roots are checked against the
// packages of their own result.
func ReadJSON(r io.Reader) ([]*scan.Result, error) {
	var rep report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode report")
	}
	if rep.FormatVersion != FormatVersion {
		return nil, errors.New(errors.ErrCodeParse, "unsupported report format version %d", rep.FormatVersion)
	}
	for i, res := range rep.Results {
		if res == nil {
			return nil, errors.New(errors.ErrCodeParse, "result %d is null", i)
		}
		known := make(map[string]bool, len(res.Packages))
		for j, p := range res.Packages {
			if p == nil || p.Name == "" {
				return nil, errors.New(errors.ErrCodeParse, "result %d: package %d has no name", i, j)
			}
			known[p.Key().String()] = true
		}
		for _, k := range res.Roots {
			if !known[k.String()] {
				return nil, errors.New(errors.ErrCodeParse, "result %d: root %s is not a package", i, k)
			}
		}
	}
	if rep.Results == nil {
		rep.Results = []*scan.Result{}
	}
	return rep.Results, nil
}

// ImportJSON reads a report file.
func ImportJSON(path string) ([]*scan.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
