package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	metadataFile = "metadata.json"
	solutionFile = "solution.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string               `json:"id"`
	Model      string               `json:"model"`
	Method     string               `json:"method"`
	Timestamp  time.Time            `json:"timestamp"`
	Order      int                  `json:"order"`
	Points     int                  `json:"points"`
	Start      float64              `json:"start"`
	Stop       float64              `json:"stop"`
	Tolerance  float64              `json:"tolerance,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
	StepsTaken int                  `json:"steps_taken"`
	Iterations int                  `json:"iterations,omitempty"`
	Params     map[string][]float64 `json:"params,omitempty"`
	Metrics    map[string]float64   `json:"metrics,omitempty"`
}

// Describe fills the fields of meta that come from the result itself.
func Describe(meta RunMetadata, result *dynamo.Result) RunMetadata {
	rows, cols := result.Solution.Dims()
	meta.Method = result.Method
	meta.Order = rows - 1
	meta.Points = cols
	meta.Start = result.Mesh[0]
	meta.Stop = result.Mesh[len(result.Mesh)-1]
	meta.StepsTaken = result.StepsTaken
	meta.Iterations = result.Iterations
	return meta
}

// ColumnNames labels the state components: x, y, dy, d2y, ...
func ColumnNames(order int) []string {
	names := make([]string, 0, order+1)
	names = append(names, "x")
	if order >= 1 {
		names = append(names, "y")
	}
	for k := 1; k < order; k++ {
		if k == 1 {
			names = append(names, "dy")
		} else {
			names = append(names, fmt.Sprintf("d%dy", k))
		}
	}
	return names
}

func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	meta = Describe(meta, result)
	meta.Timestamp = time.Now()
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%s_%d", meta.Model, meta.Method, meta.Timestamp.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, solutionFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes one row per mesh point: the mesh value followed by the
// state recorded there.
func WriteCSV(out io.Writer, result *dynamo.Result) error {
	w := csv.NewWriter(out)

	rows, cols := result.Solution.Dims()
	header := append([]string{"mesh"}, ColumnNames(rows-1)...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < cols; i++ {
		row := []string{strconv.FormatFloat(result.Mesh[i], 'g', -1, 64)}
		for k := 0; k < rows; k++ {
			row = append(row, strconv.FormatFloat(result.Solution.At(k, i), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSolution reads a stored run back into a Result.
func (s *Store) LoadSolution(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, solutionFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("run %s: no solution data", runID)
	}

	rows := len(records[0]) - 1
	cols := len(records) - 1
	points := make([]float64, cols)
	sol := mat.NewDense(rows, cols, nil)

	for i, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d: %w", runID, i+1, err)
			}
			if j == 0 {
				points[i] = v
			} else {
				sol.Set(j-1, i, v)
			}
		}
	}

	return &dynamo.Result{
		Method:     meta.Method,
		Mesh:       points,
		Solution:   sol,
		StepsTaken: meta.StepsTaken,
		Iterations: meta.Iterations,
	}, nil
}
