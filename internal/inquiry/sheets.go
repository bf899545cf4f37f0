package inquiry

import (
	"context"
	"strings"

	"ph-studio/internal/storage"
	"ph-studio/pkg/sheets"
)

type SheetSubmitter interface {
	Submit(ctx context.Context, s sheets.Submission) error
}

// SheetNotifier appends accepted inquiries to the spreadsheet.
type SheetNotifier struct {
	client SheetSubmitter
}

func NewSheetNotifier(client SheetSubmitter) *SheetNotifier {
	return &SheetNotifier{client: client}
}

func (n *SheetNotifier) NotifyInquiry(ctx context.Context, in storage.Inquiry) error {
	var lines []string
	if in.CartSummary != "" {
		lines = strings.Split(in.CartSummary, "\n")
	}
	return n.client.Submit(ctx, sheets.Submission{
		When:  in.CreatedAt,
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		Notes: in.Service + ": " + in.Message,
		Total: in.CartTotal,
		Cart:  lines,
	})
}
