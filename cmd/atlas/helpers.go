// Shared helpers for atlas CLI commands.
// Implements: prd009-atlas-cli R3, R7, R9.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/masterplan/internal/sqlite"
	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend
// and attaches it. The caller must defer backend.Detach().
func attachBackend() (*sqlite.Backend, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		CRS:     configCRS,
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return backend, nil
}

// loadCity builds the in-memory city model from the attached archive.
func loadCity(backend *sqlite.Backend) (*city.City, error) {
	c, err := city.Load(backend, configCRS)
	if err != nil {
		return nil, fmt.Errorf("load city: %w", err)
	}
	return c, nil
}

// recordRun stores an audit record of one analysis invocation. Failure
// to record is logged, not fatal; the analysis already happened.
func recordRun(backend *sqlite.Backend, kind, serviceType string, params, result map[string]any) {
	table, err := backend.GetTable(types.RunsTable)
	if err != nil {
		logger.Warn("recording run", zap.Error(err))
		return
	}
	run := &types.Run{
		Kind:        kind,
		ServiceType: serviceType,
		Params:      params,
		Result:      result,
	}
	if _, err := table.Set("", run); err != nil {
		logger.Warn("recording run", zap.Error(err))
	}
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// readInput slurps a file argument, with "-" meaning stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// newProgressBar builds a terminal progress bar, or a silent one when
// --json is set so machine output stays parseable (prd009-atlas-cli R7).
func newProgressBar(total int, label string) *progressbar.ProgressBar {
	if flagJSON {
		return progressbar.DefaultSilent(int64(total), label)
	}
	return progressbar.Default(int64(total), label)
}

// parseBlockIDs parses a comma-separated list of block IDs.
func parseBlockIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, usageErrorf("no block ids given")
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, usageErrorf("invalid block id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseWeights parses service weights given as name=weight pairs.
// A bare name counts as weight 1.
func parseWeights(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, usageErrorf("no service types given")
	}
	weights := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, usageErrorf("invalid service weight %q", pair)
		}
		weight := 1.0
		if found {
			w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil || w <= 0 {
				return nil, usageErrorf("invalid weight in %q", pair)
			}
			weight = w
		}
		weights[name] = weight
	}
	return weights, nil
}

// isEntityNotFound reports whether the error wraps ErrNotFound.
func isEntityNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
