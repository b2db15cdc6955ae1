package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/pipeline"
	"github.com/jonesrussell/north-cloud/prayerbook/internal/tree"
)

// Sheet names of the coverage workbook.
const (
	SheetCategories = "Categories"
	SheetPrayers    = "Prayers"
	SheetPasses     = "Passes"
)

// excerptRunes is the length of the opening text shown per prayer.
const excerptRunes = 80

// WriteWorkbook saves a spreadsheet for reviewing a run: leaf counts, one
// row per prayer with its category, and the bucket sizes of every pass.
func WriteWorkbook(path string, t *tree.Tree, passes []pipeline.PassStats) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetCategories); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetPrayers, SheetPasses} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	rows := map[string][][]any{
		SheetCategories: categoryRows(t),
		SheetPrayers:    prayerRows(t),
		SheetPasses:     passRows(passes),
	}
	for sheet, sheetRows := range rows {
		for i, row := range sheetRows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err = f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
			}
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func categoryRows(t *tree.Tree) [][]any {
	rows := [][]any{{"Category", "Prayers"}}
	for _, c := range t.Counts() {
		rows = append(rows, []any{c.Path.String(), c.Count})
	}
	return append(rows, []any{"Total", t.Total()})
}

func prayerRows(t *tree.Tree) [][]any {
	rows := [][]any{{"Index", "Category", "Author", "Opening"}}
	t.Walk(func(path tree.Path, leaf tree.Node) {
		for _, p := range leaf.Prayers {
			rows = append(rows, []any{p.Index, path.String(), string(p.Author), excerpt(p.JoinedText())})
		}
	})
	return rows
}

func passRows(passes []pipeline.PassStats) [][]any {
	rows := [][]any{{"Pass", "Category", "Prayers"}}
	for _, p := range passes {
		for _, c := range p.Counts {
			rows = append(rows, []any{p.Name, c.Label, c.Count})
		}
		rows = append(rows, []any{p.Name, "(remainder)", p.Remainder})
	}
	return rows
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	return string(runes[:excerptRunes]) + "…"
}
