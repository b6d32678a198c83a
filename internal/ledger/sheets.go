package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/eventdesk/registration-ingest/internal/common"
	"github.com/eventdesk/registration-ingest/internal/entity"
)

// anchorRowIndex is the zero-based row the batch is inserted at: immediately
// below the header, so the newest submission surfaces first.
const anchorRowIndex = 1

// ledgerRange covers the fixed 12-column tuple.
const ledgerRange = "A1:L"

// SheetsLedger appends registration rows to a shared Google Sheet. It relies
// on the insertion API being append-safe under concurrent callers; row order
// across simultaneous submissions is best-effort, not serialized.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	tabID         int64
	logger        *slog.Logger
}

func NewSheetsLedger(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*SheetsLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		tabID:         cfg.SheetTabID,
		logger:        logger,
	}, nil
}

// AppendBatch inserts all rows in one spreadsheets.batchUpdate call
// (InsertDimension + UpdateCells) at the anchor position. Growth is strictly
// additive: the same rows appended twice produce two independent blocks.
func (l *SheetsLedger) AppendBatch(ctx context.Context, rows []entity.LedgerRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	req := buildAppendRequest(rows, l.tabID)
	if _, err := l.svc.Spreadsheets.BatchUpdate(l.spreadsheetID, req).Context(ctx).Do(); err != nil {
		l.logger.Error("ledger.append.failed", "rows", len(rows), "error", err)
		// The remote batch is not guaranteed atomic; report how many rows
		// may already be visible so the operator can check before retrying.
		return 0, fmt.Errorf("append batch (up to %d rows may have been written): %w: %w",
			len(rows), common.ErrTransport, err)
	}

	l.logger.Info("ledger.append.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(rows), nil
}

// Snapshot reads the ledger's current contents, header row included.
func (l *SheetsLedger) Snapshot(ctx context.Context) ([][]string, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, ledgerRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w: %w", common.ErrTransport, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out, nil
}

func buildAppendRequest(rows []entity.LedgerRow, tabID int64) *sheets.BatchUpdateSpreadsheetRequest {
	data := make([]*sheets.RowData, len(rows))
	for i, row := range rows {
		data[i] = rowData(row)
	}

	return &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				InsertDimension: &sheets.InsertDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    tabID,
						Dimension:  "ROWS",
						StartIndex: anchorRowIndex,
						EndIndex:   anchorRowIndex + int64(len(rows)),
					},
					InheritFromBefore: false,
				},
			},
			{
				UpdateCells: &sheets.UpdateCellsRequest{
					Start: &sheets.GridCoordinate{
						SheetId:     tabID,
						RowIndex:    anchorRowIndex,
						ColumnIndex: 0,
					},
					Rows:   data,
					Fields: "userEnteredValue",
				},
			},
		},
	}
}

func rowData(row entity.LedgerRow) *sheets.RowData {
	return &sheets.RowData{Values: []*sheets.CellData{
		strCell(row.SubmissionTimestamp.Format("2006-01-02 15:04:05")),
		strCell(row.OperatorIdentity),
		strCell(row.RegistrationDate),
		strCell(row.ReceiptBookNumber),
		strCell(row.ReceiptNumber),
		strCell(row.ParticipantName),
		strCell(row.EventName),
		strCell(row.CollegeName),
		strCell(row.ParticipantPhone),
		strCell(row.ParticipantEmail),
		numCell(float64(row.AmountPaid)),
		strCell(row.VolunteerCode),
	}}
}

func strCell(s string) *sheets.CellData {
	return &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &s}}
}

func numCell(f float64) *sheets.CellData {
	return &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{NumberValue: &f}}
}
