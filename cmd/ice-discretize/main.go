// ice-discretize resamples a sea-ice core property profile onto a target
// vertical discretization. It reads a profile CSV conforming to the column
// schema of the core packages (name, date, variable, v_ref, y_low, y_mid,
// y_sup, ice_thickness, length, one column per property), optionally
// reorients it, and writes the discretized profile as CSV.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/megavolts/sea-ice/internal/log"
	"github.com/megavolts/sea-ice/pkg/profile"
	"github.com/megavolts/sea-ice/pkg/resample"
)

func main() {
	var (
		inputFile     = flag.String("input", "", "profile CSV to read (default stdin)")
		outputFile    = flag.String("output", "", "file to write the discretized CSV to (default stdout)")
		binsFlag      = flag.String("bins", "", "comma-separated target bin edges, e.g. 0,0.05,0.1")
		midFlag       = flag.String("mid", "", "comma-separated target midpoints (alternative to -bins)")
		fillGap       = flag.Bool("fill-gap", false, "interpolate across NaN-valued sections before re-binning")
		fillExtremity = flag.Bool("fill-extremity", false, "emit nominal bin edges past the covered data extent")
		vrefFlag      = flag.String("vref", "", "reorient the profile to this vertical reference (top or bottom)")
		hrefFlag      = flag.Float64("href", math.NaN(), "depth offset subtracted after reorientation")
		configFile    = flag.String("config", "", "YAML resampler configuration file")
		debug         = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := resample.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = resample.LoadConfig(*configFile); err != nil {
			log.Errorf("loading config: %v", err)
			os.Exit(1)
		}
	}

	in := os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			log.Errorf("opening input: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	p, err := readProfileCSV(in)
	if err != nil {
		log.Errorf("reading profile: %v", err)
		os.Exit(1)
	}

	if *vrefFlag != "" || !math.IsNaN(*hrefFlag) {
		ref := profile.Reference(*vrefFlag)
		if ref != "" && ref != profile.Top && ref != profile.Bottom {
			log.Errorf("unknown vertical reference %q", *vrefFlag)
			os.Exit(1)
		}
		var diag profile.Diagnostics
		p, diag = profile.SetVerticalReference(p, *hrefFlag, ref, true, nil)
		for _, group := range diag.DroppedGroups {
			log.Warnf("dropped unreorientable group: %s", group)
		}
	}

	opts := resample.Options{
		FillGap:       *fillGap,
		FillExtremity: *fillExtremity,
	}
	if opts.YBins, err = parseFloatList(*binsFlag); err != nil {
		log.Errorf("parsing -bins: %v", err)
		os.Exit(1)
	}
	if opts.YMid, err = parseFloatList(*midFlag); err != nil {
		log.Errorf("parsing -mid: %v", err)
		os.Exit(1)
	}

	out := resample.Discretize(p, cfg, opts, nil)

	w := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			log.Errorf("creating output: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := writeProfileCSV(w, out); err != nil {
		log.Errorf("writing profile: %v", err)
		os.Exit(1)
	}
}

func parseFloatList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readProfileCSV builds a profile from a header-bearing CSV stream. Columns
// outside the fixed schema are treated as property values when numeric and
// as free-form metadata otherwise; w_-prefixed columns carry coverage
// weights.
func readProfileCSV(r io.Reader) (*profile.Profile, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	p := profile.New()
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := profile.NewRow()
		for i, cell := range record {
			if i >= len(header) {
				break
			}
			col := header[i]
			cell = strings.TrimSpace(cell)
			switch col {
			case "name":
				row.Name = cell
			case "date":
				if cell != "" {
					t, err := time.Parse("2006-01-02", cell)
					if err != nil {
						return nil, fmt.Errorf("parsing date %q: %w", cell, err)
					}
					row.Date = t
				}
			case "variable":
				row.Variables = profile.ParseProperties(cell)
			case "v_ref":
				row.VRef = profile.Reference(cell)
			case "y_low":
				row.YLow = parseCell(cell)
			case "y_mid":
				row.YMid = parseCell(cell)
			case "y_sup":
				row.YSup = parseCell(cell)
			case "ice_thickness":
				row.IceThickness = parseCell(cell)
			case "length":
				row.Length = parseCell(cell)
			default:
				if strings.HasPrefix(col, "w_") {
					row.Weights[strings.TrimPrefix(col, "w_")] = parseCell(cell)
					continue
				}
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					row.Values[col] = v
				} else if cell != "" {
					if row.Extra == nil {
						row.Extra = map[string]string{}
					}
					row.Extra[col] = cell
				} else {
					row.Values[col] = math.NaN()
				}
			}
		}
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

func parseCell(cell string) float64 {
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func writeProfileCSV(w io.Writer, p *profile.Profile) error {
	props := p.Properties()
	// include value columns outside the group tags (carried subvariables)
	extraProps := map[string]bool{}
	extraCols := map[string]bool{}
	for _, r := range p.Rows {
		for name := range r.Values {
			if !props.Contains(name) {
				extraProps[name] = true
			}
		}
		for name := range r.Extra {
			extraCols[name] = true
		}
	}
	props = append(props, sortedKeys(extraProps)...)

	header := []string{"name", "date", "variable", "v_ref", "y_low", "y_mid", "y_sup", "ice_thickness", "length"}
	for _, prop := range props {
		header = append(header, prop)
	}
	for _, prop := range props {
		header = append(header, "w_"+prop)
	}
	extras := sortedKeys(extraCols)
	header = append(header, extras...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range p.Rows {
		record := []string{
			r.Name,
			formatDate(r.Date),
			r.Variables.String(),
			string(r.VRef),
			formatFloat(r.YLow),
			formatFloat(r.YMid),
			formatFloat(r.YSup),
			formatFloat(r.IceThickness),
			formatFloat(r.Length),
		}
		for _, prop := range props {
			record = append(record, formatFloat(r.Value(prop)))
		}
		for _, prop := range props {
			record = append(record, formatFloat(r.Weight(prop)))
		}
		for _, col := range extras {
			record = append(record, r.Extra[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
