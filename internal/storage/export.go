package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type ExportData struct {
	RunMetadata
	Columns  []string    `json:"columns"`
	Mesh     []float64   `json:"mesh"`
	Solution [][]float64 `json:"solution"`
}

// ExportJSON writes metadata and the solution rows (one per state
// component) as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	rows, _ := result.Solution.Dims()
	data := ExportData{
		RunMetadata: Describe(meta, result),
		Columns:     ColumnNames(rows - 1),
		Mesh:        result.Mesh,
		Solution:    make([][]float64, rows),
	}
	for k := 0; k < rows; k++ {
		data.Solution[k] = mat.Row(nil, k, result.Solution)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
