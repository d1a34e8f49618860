package query

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"farmflow/internal/repository"
)

const exportSheet = "Purchases"

// ExportPurchasesXLSX renders a purchase history as a spreadsheet. The same
// filters as the JSON listing apply; the export is capped at 10000 rows.
func (s *Service) ExportPurchasesXLSX(ctx context.Context, params repository.ListPurchasesParams) ([]byte, error) {
	if params.Limit <= 0 || params.Limit > 10000 {
		params.Limit = 10000
	}
	items, err := s.Repo.ListPurchases(ctx, params)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{"ID", "Crop", "Quantity", "Total Price", "Buyer", "Farmer", "Date"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, p := range items {
		values := []any{
			p.ID,
			p.CropName,
			p.Quantity,
			p.TotalPrice,
			p.Buyer,
			p.Farmer,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
