package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/apperrors"
	"github.com/gtmhq/agreements-engine/pkg/models"
)

// agreementExportColumns is the fixed export column order for agreements,
// stored fields followed by the derived monetization columns.
var agreementExportColumns = []string{
	"agreement_id", "agreement_name", "customer_name", "customer_segment",
	"region", "industry", "agreement_type", "start_date", "end_date",
	"agreement_value_ceiling", "currency", "status", "status_date",
	"account_manager", "sales_owner", "partnerships_vendors",
	"probability_to_sign", "expected_signature_date", "signed_date",
	"total_pos_value_to_date", "utilization_percent", "risk_flag", "notes",
}

// poExportColumns is the fixed export column order for purchase orders.
var poExportColumns = []string{
	"po_id", "agreement_id", "po_number", "po_date", "po_value",
	"currency", "customer_name", "account_manager", "notes",
}

const csvDateLayout = "2006-01-02"

// ImportResult reports how a bulk import went. Rows that fail validation
// are skipped and reported; the rest are committed individually.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// TransferService bulk-exports and bulk-imports agreements and purchase
// orders as CSV. Importing a row is equivalent to the corresponding create
// call: agreement ids are reassigned, empty cells are treated as absent,
// and PO imports override the ceiling check to tolerate historical data.
type TransferService interface {
	ExportAgreementsCSV(ctx context.Context, w io.Writer) error
	ExportPOsCSV(ctx context.Context, w io.Writer) error
	ImportAgreementsCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
	ImportPOsCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

type transferService struct {
	ledger LedgerService
	logger *zap.Logger
}

// NewTransferService creates a new TransferService on top of the ledger.
func NewTransferService(ledger LedgerService, logger *zap.Logger) TransferService {
	return &transferService{
		ledger: ledger,
		logger: logger.Named("transfer-service"),
	}
}

var _ TransferService = (*transferService)(nil)

func (s *transferService) ExportAgreementsCSV(ctx context.Context, w io.Writer) error {
	views, err := s.ledger.ListAgreements(ctx, models.AgreementFilter{})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(agreementExportColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, v := range views {
		row := []string{
			v.ID,
			v.Name,
			v.CustomerName,
			string(v.CustomerSegment),
			v.Region,
			v.Industry,
			string(v.AgreementType),
			formatDatePtr(v.StartDate),
			formatDatePtr(v.EndDate),
			v.ValueCeiling.String(),
			string(v.Currency),
			string(v.Status),
			v.StatusDate.Format(csvDateLayout),
			v.AccountManager,
			v.SalesOwner,
			v.PartnershipsVendors,
			formatDecimalPtr(v.ProbabilityToSign),
			formatDatePtr(v.ExpectedSignatureDate),
			formatDatePtr(v.SignedDate),
			v.TotalPOsValue.String(),
			v.UtilizationPercent.StringFixed(2),
			string(v.RiskFlag),
			v.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *transferService) ExportPOsCSV(ctx context.Context, w io.Writer) error {
	pos, err := s.ledger.ListAllPOs(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(poExportColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, po := range pos {
		row := []string{
			po.ID,
			po.AgreementID,
			po.PONumber,
			po.Date.Format(csvDateLayout),
			po.Value.String(),
			string(po.Currency),
			po.CustomerName,
			po.AccountManager,
			po.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func (s *transferService) ImportAgreementsCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, row := range rows {
		a, err := agreementFromRow(row)
		if err == nil {
			// The exported agreement_id is ignored; creation always
			// assigns a fresh sequential id.
			_, err = s.ledger.CreateAgreement(ctx, a)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("Imported agreements",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *transferService) ImportPOsCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for i, row := range rows {
		po, err := poFromRow(row)
		if err == nil {
			_, err = s.ledger.CreatePO(ctx, po, true)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("Imported purchase orders",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))

	return result, nil
}

// readCSV reads the header and all data rows, returning each data row as a
// header-keyed map with empty cells dropped.
func readCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) && record[i] != "" {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func agreementFromRow(row map[string]string) (*models.Agreement, error) {
	a := &models.Agreement{
		Name:                row["agreement_name"],
		CustomerName:        row["customer_name"],
		CustomerSegment:     models.CustomerSegment(row["customer_segment"]),
		Region:              row["region"],
		Industry:            row["industry"],
		AgreementType:       models.AgreementType(row["agreement_type"]),
		Currency:            models.Currency(row["currency"]),
		Status:              models.AgreementStatus(row["status"]),
		AccountManager:      row["account_manager"],
		SalesOwner:          row["sales_owner"],
		PartnershipsVendors: row["partnerships_vendors"],
		RenewalTerms:        row["renewal_terms"],
		Notes:               row["notes"],
	}

	var err error
	if a.ValueCeiling, err = parseDecimalCell(row, "agreement_value_ceiling"); err != nil {
		return nil, err
	}
	if a.ProbabilityToSign, err = parseDecimalPtrCell(row, "probability_to_sign"); err != nil {
		return nil, err
	}
	if a.StartDate, err = parseDateCell(row, "start_date"); err != nil {
		return nil, err
	}
	if a.EndDate, err = parseDateCell(row, "end_date"); err != nil {
		return nil, err
	}
	if a.ExpectedSignatureDate, err = parseDateCell(row, "expected_signature_date"); err != nil {
		return nil, err
	}
	if a.SignedDate, err = parseDateCell(row, "signed_date"); err != nil {
		return nil, err
	}
	if statusDate, err := parseDateCell(row, "status_date"); err != nil {
		return nil, err
	} else if statusDate != nil {
		a.StatusDate = *statusDate
	}

	return a, nil
}

func poFromRow(row map[string]string) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{
		AgreementID:    row["agreement_id"],
		PONumber:       row["po_number"],
		Currency:       models.Currency(row["currency"]),
		CustomerName:   row["customer_name"],
		AccountManager: row["account_manager"],
		Notes:          row["notes"],
	}

	var err error
	if po.Value, err = parseDecimalCell(row, "po_value"); err != nil {
		return nil, err
	}
	if date, err := parseDateCell(row, "po_date"); err != nil {
		return nil, err
	} else if date != nil {
		po.Date = *date
	}

	return po, nil
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(csvDateLayout)
}

func formatDecimalPtr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func parseDecimalCell(row map[string]string, col string) (decimal.Decimal, error) {
	raw, ok := row[col]
	if !ok {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(col, "not a number")
	}
	return d, nil
}

func parseDecimalPtrCell(row map[string]string, col string) (*decimal.Decimal, error) {
	if _, ok := row[col]; !ok {
		return nil, nil
	}
	d, err := parseDecimalCell(row, col)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDateCell(row map[string]string, col string) (*time.Time, error) {
	raw, ok := row[col]
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(csvDateLayout, raw)
	if err != nil {
		return nil, apperrors.NewValidationError(col, "not a date (want YYYY-MM-DD)")
	}
	return &t, nil
}
