package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Artifact file names written by WriteArtifacts.
const (
	FileSatisfaction = "preanalysed_solutions_satisfaction.csv"
	FileDominance    = "preanalysed_solutions_dominance.csv"
	FileTOPSIS       = "topsis_solutions.csv"
	FileWeighted     = "weighted_solutions.csv"
	FileElectreI     = "electre1_outranking.csv"
	FileTiers        = "electre2_tiers.json"
	FileResult       = "result.json"
)

const weightedColumn = "Weighted sum"

// WriteArtifacts writes one file per stage output present in res into dir,
// creating it if needed, and returns the paths written. Stages that failed
// or did not run produce no file.
func WriteArtifacts(dir string, res *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	emit := func(name string, write func(path string) error) error {
		path := filepath.Join(dir, name)
		if err := write(path); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	if res.satisfying != nil {
		if err := emit(FileSatisfaction, func(p string) error { return table.WriteCSVFile(p, res.satisfying) }); err != nil {
			return written, err
		}
	}
	if res.front != nil {
		if err := emit(FileDominance, func(p string) error { return table.WriteCSVFile(p, res.front) }); err != nil {
			return written, err
		}
	}
	if res.Similarity != nil {
		if err := emit(FileTOPSIS, func(p string) error { return writeSimilarity(p, res) }); err != nil {
			return written, err
		}
	}
	if res.Weighted != nil {
		if err := emit(FileWeighted, func(p string) error { return table.WriteCSVFile(p, weightedTable(res)) }); err != nil {
			return written, err
		}
	}
	if res.Outranking != nil {
		if err := emit(FileElectreI, func(p string) error { return writeEdges(p, res.Outranking) }); err != nil {
			return written, err
		}
	}
	if res.Tiers != nil {
		if err := emit(FileTiers, func(p string) error { return writeJSON(p, res.Tiers) }); err != nil {
			return written, err
		}
	}
	if err := emit(FileResult, func(p string) error { return writeJSON(p, res) }); err != nil {
		return written, err
	}
	return written, nil
}

// weightedTable keeps the non-criterion columns of the reduced table, adds
// the score column, and orders rows by score.
func weightedTable(res *Result) *table.Table {
	skip := make(map[string]bool, len(res.criteria))
	for _, name := range res.criteria {
		skip[name] = true
	}
	out := &table.Table{IDColumn: res.reduced.IDColumn}
	for _, col := range res.reduced.Columns {
		if !skip[col] {
			out.Columns = append(out.Columns, col)
		}
	}
	out.Columns = append(out.Columns, weightedColumn)

	for _, ranked := range res.Weighted {
		row := res.reduced.Subset([]int{ranked.Position}).Rows[0]
		for name := range skip {
			delete(row.Values, name)
		}
		row.Values[weightedColumn] = ranked.Score
		out.Rows = append(out.Rows, row)
	}
	return out
}

func writeSimilarity(path string, res *Result) error {
	header := res.reduced.IDColumn
	records := [][]string{{header, "similarity"}}
	for _, r := range res.Similarity {
		records = append(records, []string{r.ID, table.FormatFloat(r.Score)})
	}
	return writeRecords(path, records)
}

func writeEdges(path string, edges []Edge) error {
	records := [][]string{{"from", "to"}}
	for _, e := range edges {
		records = append(records, []string{e.From, e.To})
	}
	return writeRecords(path, records)
}

func writeRecords(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := csv.NewWriter(f).WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
