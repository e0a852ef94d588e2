package types

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Matrix is a square travel time matrix in minutes between city blocks,
// keyed by block ID in a fixed order. The diagonal is zero by convention
// but not enforced; intra-block travel can carry a cost.
// Implements: prd003-city-interface R8.
type Matrix struct {
	ids   []int
	index map[int]int
	data  *mat.Dense
}

// NewMatrix creates a zero matrix over the given block IDs.
// Returns ErrDuplicateID when an ID repeats.
func NewMatrix(ids []int) (*Matrix, error) {
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		if _, ok := index[id]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		index[id] = i
	}
	n := len(ids)
	m := &Matrix{
		ids:   append([]int(nil), ids...),
		index: index,
	}
	if n > 0 {
		m.data = mat.NewDense(n, n, nil)
	}
	return m, nil
}

// Len returns the number of blocks covered by the matrix.
func (m *Matrix) Len() int {
	return len(m.ids)
}

// IDs returns the block IDs in matrix order.
func (m *Matrix) IDs() []int {
	return append([]int(nil), m.ids...)
}

// Has reports whether the matrix covers the block ID.
func (m *Matrix) Has(id int) bool {
	_, ok := m.index[id]
	return ok
}

// At returns the travel time in minutes from one block to another.
// Returns ErrUnknownBlock when either ID is not covered.
func (m *Matrix) At(from, to int) (float64, error) {
	i, ok := m.index[from]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBlock, from)
	}
	j, ok := m.index[to]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBlock, to)
	}
	return m.data.At(i, j), nil
}

// Set stores the travel time in minutes from one block to another.
// Returns ErrNegativeTime for negative values and ErrUnknownBlock for
// uncovered IDs.
func (m *Matrix) Set(from, to int, minutes float64) error {
	if minutes < 0 {
		return ErrNegativeTime
	}
	i, ok := m.index[from]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, from)
	}
	j, ok := m.index[to]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, to)
	}
	m.data.Set(i, j, minutes)
	return nil
}

// Row returns a copy of the travel times from the given block to every
// block, in matrix order.
func (m *Matrix) Row(id int) ([]float64, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	out := make([]float64, len(m.ids))
	mat.Row(out, i, m.data)
	return out, nil
}

// Column returns a copy of the travel times to the given block from every
// block, in matrix order.
func (m *Matrix) Column(id int) ([]float64, error) {
	j, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	out := make([]float64, len(m.ids))
	mat.Col(out, j, m.data)
	return out, nil
}

// RowMedian returns the median travel time from the given block, the
// linearly interpolated 0.5 quantile.
func (m *Matrix) RowMedian(id int) (float64, error) {
	row, err := m.Row(id)
	if err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, nil
	}
	sort.Float64s(row)
	return stat.Quantile(0.5, stat.LinInterp, row, nil), nil
}

// Dense exposes the backing dense matrix in matrix order. Callers must
// treat it as read-only.
func (m *Matrix) Dense() *mat.Dense {
	return m.data
}

// ValidateAgainst checks that the matrix covers exactly the given block
// IDs, no more and no fewer.
// Implements: prd003-city-interface R8.2.
func (m *Matrix) ValidateAgainst(blockIDs []int) error {
	if len(blockIDs) != len(m.ids) {
		return ErrMatrixMismatch
	}
	for _, id := range blockIDs {
		if !m.Has(id) {
			return fmt.Errorf("%w: missing %d", ErrMatrixMismatch, id)
		}
	}
	return nil
}

// WriteCSV writes the matrix with a leading header row of block IDs and
// one row per source block, first column the source ID.
func (m *Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(m.ids)+1)
	for i, id := range m.ids {
		header[i+1] = strconv.Itoa(id)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(m.ids)+1)
	buf := make([]float64, len(m.ids))
	for i, id := range m.ids {
		mat.Row(buf, i, m.data)
		row[0] = strconv.Itoa(id)
		for j, v := range buf {
			row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMatrixCSV parses a matrix in the WriteCSV layout. Row order defines
// matrix order; every row must carry exactly one value per header ID.
func ReadMatrixCSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if len(records) == 0 {
		return NewMatrix(nil)
	}
	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: matrix header too short", ErrInvalidData)
	}
	ids := make([]int, len(header)-1)
	for i, cell := range header[1:] {
		id, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: header %q", ErrInvalidData, cell)
		}
		ids[i] = id
	}
	m, err := NewMatrix(ids)
	if err != nil {
		return nil, err
	}
	if len(records)-1 != len(ids) {
		return nil, fmt.Errorf("%w: %d rows for %d ids", ErrInvalidData, len(records)-1, len(ids))
	}
	for _, rec := range records[1:] {
		if len(rec) != len(ids)+1 {
			return nil, fmt.Errorf("%w: ragged matrix row", ErrInvalidData)
		}
		from, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: row id %q", ErrInvalidData, rec[0])
		}
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %q", ErrInvalidData, cell)
			}
			if err := m.Set(from, ids[j], v); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
