// Package integration provides CLI and archive integration tests for
// atlas.
package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var (
	// atlasBin is the path to the built atlas binary.
	atlasBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up to go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetAtlasBin sets the path to the atlas binary (called from TestMain).
func SetAtlasBin(path string) {
	atlasBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config and
// data directory.
type TestEnv struct {
	t       *testing.T
	TempDir string
	Config  string
	DataDir string
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build atlas: %v", buildErr)
	}
	if atlasBin == "" {
		t.Fatal("atlas binary not built (atlasBin is empty)")
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := "backend: sqlite\ncrs: 32636\ndata_dir: " + dataDir + "\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:       t,
		TempDir: tempDir,
		Config:  configDir,
		DataDir: dataDir,
	}
}

// CmdResult holds the result of an atlas command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunAtlas executes the atlas CLI with the given arguments.
func (e *TestEnv) RunAtlas(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.Config, "--data-dir", e.DataDir}, args...)
	cmd := exec.Command(atlasBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run atlas: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunAtlas executes the atlas CLI and fails the test on non-zero exit.
func (e *TestEnv) MustRunAtlas(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunAtlas(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("atlas %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// WriteFixture writes content to a file under the temp directory and
// returns its path.
func (e *TestEnv) WriteFixture(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.TempDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}

// ReadJSONLFile reads a JSONL file (one JSON object per line).
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open JSONL file %s: %v", path, err)
	}
	defer f.Close()

	var results []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("failed to parse JSONL line in %s: %v", path, err)
		}
		results = append(results, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan JSONL file %s: %v", path, err)
	}
	return results
}

// Test fixtures below build a tiny two-block town in a projected CRS:
// block 1 around (1000,1000) holds an apartment house with 1000
// residents, block 2 around (2000,1000) hosts a school, and a street
// runs between the two centroids.

// squareJSON renders a closed square ring centered at (cx, cy).
func squareJSON(cx, cy, side float64) string {
	h := side / 2
	return fmt.Sprintf("[[[%g,%g],[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]",
		cx-h, cy-h, cx+h, cy-h, cx+h, cy+h, cx-h, cy+h, cx-h, cy-h)
}

// feature renders one GeoJSON feature.
func feature(geomType, coords, props string) string {
	return fmt.Sprintf(`{"type":"Feature","geometry":{"type":%q,"coordinates":%s},"properties":{%s}}`,
		geomType, coords, props)
}

// collection renders a GeoJSON feature collection.
func collection(features ...string) string {
	return `{"type":"FeatureCollection","features":[` + strings.Join(features, ",") + `]}`
}

// blocksGeoJSON is the two-block town plan.
func blocksGeoJSON() string {
	return collection(
		feature("Polygon", squareJSON(1000, 1000, 400), `"block_id":1,"land_use":"residential"`),
		feature("Polygon", squareJSON(2000, 1000, 400), `"block_id":2,"land_use":"residential"`),
	)
}

// buildingsGeoJSON is one apartment house inside block 1.
func buildingsGeoJSON() string {
	return collection(
		feature("Polygon", squareJSON(1000, 1000, 60),
			`"floors":5,"population":1000,"living_area":15000`),
	)
}

// facilitiesGeoJSON is one school inside block 2.
func facilitiesGeoJSON() string {
	return collection(
		feature("Point", "[2000,1000]", `"capacity":200`),
	)
}

// routesGeoJSON is a walkable street between the block centroids.
func routesGeoJSON() string {
	return collection(
		feature("LineString", "[[800,1000],[2200,1000]]", `"mode":"walk"`),
	)
}

// matrixCSV is a symmetric two-block travel matrix in minutes.
func matrixCSV() string {
	return ",1,2\n1,0,5\n2,5,0\n"
}
