// Package report builds the xlsx workbooks offered for download.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"ph-studio/internal/cart"
	"ph-studio/internal/quote"
	"ph-studio/internal/storage"
)

const (
	inquiriesSheet = "Запитвания"
	offerSheet     = "Оферта"
	dateLayout     = "02.01.2006 15:04"
)

var inquiryHeaders = []string{
	"ID", "Дата", "Име", "Имейл", "Телефон", "Услуга", "Размери",
	"Съобщение", "Кошница", "Сума (лв.)", "Файл", "Статус",
}

// InquiriesWorkbook lists inquiries one per row under a bold header.
func InquiriesWorkbook(items []storage.Inquiry) ([]byte, error) {
	const operation = "report.InquiriesWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, inquiriesSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if err := writeRow(f, inquiriesSheet, 1, toRow(inquiryHeaders)); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	for i, in := range items {
		row := []any{
			in.ID,
			in.CreatedAt.Local().Format(dateLayout),
			in.Name,
			in.Email,
			in.Phone,
			in.Service,
			in.Dimensions,
			in.Message,
			in.CartSummary,
			in.CartTotal,
			in.AttachmentName,
			in.Status.Label(),
		}
		if err := writeRow(f, inquiriesSheet, i+2, row); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
	}

	if err := boldRow(f, inquiriesSheet, 1, len(inquiryHeaders)); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	_ = f.SetColWidth(inquiriesSheet, "A", "A", 28)
	_ = f.SetColWidth(inquiriesSheet, "H", "I", 60)

	return toBytes(f, operation)
}

// OfferWorkbook is the spreadsheet form of the downloadable offer.
func OfferWorkbook(c cart.Cart, ct cart.Contact, cat *quote.Catalog) ([]byte, error) {
	const operation = "report.OfferWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, offerSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	row := 1
	contact := [][]any{
		{"Име", ct.Name},
		{"Имейл", ct.Email},
		{"Телефон", ct.Phone},
		{"Забележки", ct.Notes},
	}
	for _, r := range contact {
		if err := writeRow(f, offerSheet, row, r); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		row++
	}

	row++
	headerRow := row
	if err := writeRow(f, offerSheet, row, []any{"#", "Описание", "Брой", "Ед. цена (лв.)", "Общо (лв.)"}); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	row++

	for i, l := range c.Lines {
		r := []any{i + 1, cart.Describe(i+1, l, cat), l.Quantity, l.PerUnit, l.Total}
		if err := writeRow(f, offerSheet, row, r); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		row++
	}

	if err := writeRow(f, offerSheet, row, []any{"", "Общо", "", "", c.Total()}); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if err := boldRow(f, offerSheet, headerRow, 5); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	if err := boldRow(f, offerSheet, row, 5); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	_ = f.SetColWidth(offerSheet, "B", "B", 90)

	return toBytes(f, operation)
}

// newSheet renames the default sheet to name and makes it active.
func newSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	index, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, from, to, style)
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func toBytes(f *excelize.File, operation string) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to write workbook: %w", operation, err)
	}
	return buf.Bytes(), nil
}
