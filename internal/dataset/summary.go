package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

const planSheet = "Plan"

var planHeader = []any{
	"#", "Start", "End", "Text", "Highlight", "Caption Animation",
	"Video Animation", "Title", "Scene Change", "Section Title",
}

// ExportPlan writes one spreadsheet row per segment for review outside the
// renderer.
func ExportPlan(plan types.EditPlan, path string) error {
	log := logger.New().WithField("component", "dataset.export").WithField("path", path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(planSheet, "A1", &planHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(planSheet, 1, 1, bold)
	}

	for i, seg := range plan.Segments {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			i + 1,
			seg.Start,
			seg.End,
			seg.Text,
			strings.Join(seg.Highlight, ", "),
			string(seg.CaptionAnimation),
			string(seg.VideoAnimation),
			seg.IsTitle,
			seg.IsSceneChange,
			seg.SectionTitle,
		}
		if err := f.SetSheetRow(planSheet, cellName, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	_ = f.SetColWidth(planSheet, "D", "D", 60)

	if err := f.SaveAs(path); err != nil {
		log.WithError(err).Error("save failed")
		return fmt.Errorf("save plan sheet: %w", err)
	}
	log.WithField("segments", len(plan.Segments)).Info("plan exported")
	return nil
}
