// Package export renders vacation listings as spreadsheet files for
// the HR side of the house.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/vacation-engine/vacation"
)

const sheetName = "Vacations"

var headers = []string{"ID", "User", "Status", "Planned", "Start", "End", "Days", "Description"}

// WriteRanges writes an .xlsx listing of ranges to w. The statuses map
// resolves status names and planned flags; unknown statuses render
// blank.
func WriteRanges(w io.Writer, ranges []vacation.VacationRange, statuses map[vacation.StatusID]vacation.VacationStatus) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range ranges {
		r := &ranges[i]
		st := statuses[r.StatusID]

		end := ""
		if r.EndDate != nil {
			end = r.EndDate.String()
		}

		values := []any{
			int64(r.ID),
			int64(r.UserID),
			st.Name,
			st.IsPlanned,
			r.StartDate.String(),
			end,
			r.Days(),
			r.TitleDescription(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
