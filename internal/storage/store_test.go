package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/odestep/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		Method:     "implicit",
		Mesh:       []float64{0, 0.1, 0.2},
		Solution:   mat.NewDense(3, 3, []float64{0, 0.1, 0.2, 1, 0.95, 0.9025, 0, -0.5, -0.475}),
		StepsTaken: 2,
		Iterations: 14,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{
		Model:     "oscillator",
		Tolerance: 1e-5,
		Limit:     100,
		Params:    map[string][]float64{"omega": {1}},
	}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Model != "oscillator" || meta.Method != "implicit" {
		t.Errorf("unexpected model/method %s/%s", meta.Model, meta.Method)
	}
	if meta.Order != 2 || meta.Points != 3 {
		t.Errorf("expected order 2 with 3 points, got %d/%d", meta.Order, meta.Points)
	}
	if meta.Stop != 0.2 || meta.Iterations != 14 {
		t.Errorf("unexpected stop %v / iterations %d", meta.Stop, meta.Iterations)
	}
	if meta.Params["omega"][0] != 1 {
		t.Errorf("expected omega 1, got %v", meta.Params["omega"])
	}

	loaded, err := st.LoadSolution(runID)
	if err != nil {
		t.Fatalf("load solution failed: %v", err)
	}

	if !mat.Equal(loaded.Solution, testResult().Solution) {
		t.Errorf("solution did not round trip:\n%v", mat.Formatted(loaded.Solution))
	}
	if len(loaded.Mesh) != 3 || loaded.Mesh[1] != 0.1 {
		t.Errorf("unexpected mesh %v", loaded.Mesh)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Model: "decay"}, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := st.Save(RunMetadata{Model: "pendulum"}, testResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Model != "decay" {
		t.Errorf("expected runs in save order, got %s first", runs[0].Model)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Model: "test"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	data, err := os.ReadFile(filepath.Join(runDir, "solution.csv"))
	if err != nil {
		t.Fatalf("solution.csv not readable: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "mesh,x,y,dy" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}

func TestStoreSaveNamedRun(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{ID: "baseline", Model: "test"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID != "baseline" {
		t.Errorf("expected the given id, got %s", runID)
	}
	if _, err := st.LoadSolution("baseline"); err != nil {
		t.Errorf("load by name failed: %v", err)
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.LoadSolution("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestColumnNames(t *testing.T) {
	tests := []struct {
		order int
		want  string
	}{
		{0, "x"},
		{1, "x,y"},
		{2, "x,y,dy"},
		{4, "x,y,dy,d2y,d3y"},
	}

	for _, tt := range tests {
		if got := strings.Join(ColumnNames(tt.order), ","); got != tt.want {
			t.Errorf("ColumnNames(%d) = %s, want %s", tt.order, got, tt.want)
		}
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{ID: "r1", Model: "oscillator"}, testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if data.ID != "r1" || data.Method != "implicit" {
		t.Errorf("unexpected metadata %+v", data.RunMetadata)
	}
	if len(data.Solution) != 3 || data.Solution[1][2] != 0.9025 {
		t.Errorf("unexpected solution rows %v", data.Solution)
	}
	if len(data.Columns) != 3 || data.Columns[2] != "dy" {
		t.Errorf("unexpected columns %v", data.Columns)
	}
}
