package products

import (
	"context"
	"io"

	"github.com/tealeg/xlsx"

	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/money"
)

var exportHeaders = []string{
	"ID", "Name", "Slug", "Status", "Category", "Currency",
	"Price", "Amount", "PriceCents", "CompareAtCents", "Stock", "CreatedAt", "UpdatedAt",
}

// Export writes every product of the shop as a single-sheet workbook.
func (s *Service) Export(ctx context.Context, shopID string, w io.Writer) error {
	items, err := s.repo.AllForShop(ctx, shopID)
	if err != nil {
		return apperr.Wrap(err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return apperr.Wrap(err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Status)
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		row.AddCell().SetString(category)
		row.AddCell().SetString(p.Currency)
		row.AddCell().SetString(money.Format(p.PriceCents, p.Currency))
		row.AddCell().SetFloat(money.Major(p.PriceCents, p.Currency))
		row.AddCell().SetInt64(p.PriceCents)
		row.AddCell().SetInt64(p.CompareAtCents)
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}
