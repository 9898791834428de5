package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/notargets/diffusion2d/types"
)

/*
	Material files are a sequence of blocks, each opened by a header line:

		Material 1:
		    name: Water
		    sigma_s: 0.21     # or sigma_tr, converted using sigma_a and mu_0
		    sigma_a: 0.01
		    mu_0: 0
		    sigma_f: 0
		    s: 1
		    bounds: (10, 10)  # (width, height) or (x0, x1, y0, y1)
		    bound_type: (1, 1, 0, 0)

	Keys are case insensitive and '-' reads as '_'. Anything after '#' is ignored.
*/
var (
	headerRE   = regexp.MustCompile(`(?i)^\s*material\s*\d*\s*:?\s*$`)
	tupleSplit = regexp.MustCompile(`[,\s]+`)
)

func ReadMaterials(filename string, verbose bool) (materials []types.MaterialSpec, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading material file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open material file %s: %w", filename, err)
	}
	defer file.Close()
	if materials, err = ParseMaterials(file); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if verbose {
		fmt.Printf("Read %d materials\n", len(materials))
	}
	return
}

type materialBlock struct {
	line  int // Line number of the header
	props map[string]string
}

func ParseMaterials(r io.Reader) (materials []types.MaterialSpec, err error) {
	var (
		blocks  []*materialBlock
		current *materialBlock
		scanner = bufio.NewScanner(r)
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if k := strings.IndexByte(line, '#'); k >= 0 {
			line = line[:k]
		}
		if headerRE.MatchString(line) {
			current = &materialBlock{line: lineNum, props: make(map[string]string)}
			blocks = append(blocks, current)
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		key, val, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %d: expected \"key: value\", have %q: %w",
				lineNum, strings.TrimSpace(line), types.ErrInput)
		}
		current.props[normalizeKey(key)] = strings.TrimSpace(val)
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no material blocks found: %w", types.ErrInput)
	}
	materials = make([]types.MaterialSpec, len(blocks))
	for n, blk := range blocks {
		if materials[n], err = blk.toMaterial(); err != nil {
			return nil, fmt.Errorf("material %d (line %d): %w", n+1, blk.line, err)
		}
	}
	return
}

func normalizeKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
}

func (blk *materialBlock) toMaterial() (m types.MaterialSpec, err error) {
	var (
		bounds []float64
		bt     []bool
	)
	m.Name = "unknown"
	if name, ok := blk.props["name"]; ok && name != "" {
		m.Name = name
	}
	for _, field := range []struct {
		key string
		dst *float64
	}{
		{"sigma_s", &m.SigmaS},
		{"sigma_a", &m.SigmaA},
		{"mu_0", &m.Mu0},
		{"sigma_f", &m.SigmaF},
		{"s", &m.S},
	} {
		if *field.dst, err = blk.float(field.key); err != nil {
			return
		}
	}
	if err = blk.applySigmaTr(&m); err != nil {
		return
	}
	if bounds, err = blk.floatTuple("bounds"); err != nil {
		return
	}
	switch len(bounds) {
	case 2:
		m.Width, m.Height = bounds[0], bounds[1]
	case 4:
		m.Width, m.Height = bounds[1]-bounds[0], bounds[3]-bounds[2]
	default:
		return m, fmt.Errorf("bounds must have 2 or 4 values, have %d: %w", len(bounds), types.ErrInput)
	}
	if bt, err = blk.boolTuple("bound_type"); err != nil {
		return
	}
	if len(bt) != 4 {
		return m, fmt.Errorf("bound_type must have 4 values, have %d: %w", len(bt), types.ErrInput)
	}
	copy(m.BoundType[:], bt)
	return
}

func (blk *materialBlock) float(key string) (v float64, err error) {
	raw, ok := blk.props[key]
	if !ok || raw == "" {
		return 0, nil
	}
	if v, err = strconv.ParseFloat(raw, 64); err != nil {
		err = fmt.Errorf("invalid value %q for %s: %w", raw, key, types.ErrInput)
	}
	return
}

// applySigmaTr accepts a transport cross-section in place of sigma_s
func (blk *materialBlock) applySigmaTr(m *types.MaterialSpec) (err error) {
	var (
		key = "sigma_tr"
		tr  float64
	)
	if _, ok := blk.props["sigma__tr"]; ok {
		key = "sigma__tr"
	}
	if _, ok := blk.props[key]; !ok {
		return
	}
	if _, ok := blk.props["sigma_s"]; ok {
		return fmt.Errorf("sigma_s and %s are both given: %w", key, types.ErrInput)
	}
	if tr, err = blk.float(key); err != nil {
		return
	}
	if m.Mu0 == 1 {
		return fmt.Errorf("%s cannot be converted with mu_0 = 1: %w", key, types.ErrInput)
	}
	m.SigmaS = (tr - m.SigmaA) / (1 - m.Mu0)
	return
}

func (blk *materialBlock) tuple(key string) (parts []string, err error) {
	raw, ok := blk.props[key]
	if !ok {
		return nil, fmt.Errorf("%s not found: %w", key, types.ErrInput)
	}
	raw = strings.TrimRight(strings.TrimLeft(strings.TrimSpace(raw), "(["), ")]")
	for _, p := range tupleSplit.Split(raw, -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s is empty: %w", key, types.ErrInput)
	}
	return
}

func (blk *materialBlock) floatTuple(key string) (vals []float64, err error) {
	var parts []string
	if parts, err = blk.tuple(key); err != nil {
		return
	}
	vals = make([]float64, len(parts))
	for k, p := range parts {
		if vals[k], err = strconv.ParseFloat(p, 64); err != nil {
			return nil, fmt.Errorf("invalid value %q in %s: %w", p, key, types.ErrInput)
		}
	}
	return
}

// boolTuple only accepts the literals 1 (vacuum) and 0 (reflective)
func (blk *materialBlock) boolTuple(key string) (vals []bool, err error) {
	var parts []string
	if parts, err = blk.tuple(key); err != nil {
		return
	}
	vals = make([]bool, len(parts))
	for k, p := range parts {
		switch p {
		case "1":
			vals[k] = true
		case "0":
		default:
			return nil, fmt.Errorf("%s values must be '1' or '0', found %q: %w", key, p, types.ErrInput)
		}
	}
	return
}
