package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/pkg/money"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet content type
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timestampLayout = "2006-01-02 15:04:05"

var userColumns = []string{
	"ID", "Session ID", "Phone", "National ID", "Full Name",
	"Address", "Father", "Mother", "Loan Amount", "Duration", "Date Registered",
}

var repaymentColumns = []string{"ID", "User ID", "Amount", "Due Date", "Paid", "Paid At"}

var momopayColumns = []string{"Phone", "Balance", "Float Shared", "Merged Batch", "Updated At"}

// ReportFile is one written snapshot
type ReportFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// ExportService writes point-in-time snapshots of the store
type ExportService struct {
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	momopayRepo   repositories.MoMoPayRepository
	now           func() time.Time
}

// NewExportService creates a new export service
func NewExportService(
	userRepo repositories.UserRepository,
	repaymentRepo repositories.RepaymentRepository,
	momopayRepo repositories.MoMoPayRepository,
) *ExportService {
	return &ExportService{
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		momopayRepo:   momopayRepo,
		now:           time.Now,
	}
}

func (s *ExportService) userRows(ctx context.Context) ([][]string, error) {
	users, err := s.userRepo.Search(ctx, "")
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.SessionID,
			u.Phone,
			u.NationalID,
			u.FullName,
			u.Address,
			u.FatherName,
			u.MotherName,
			money.Format(u.LoanAmount),
			strconv.Itoa(u.Duration),
			u.DateRegistered.Format(timestampLayout),
		})
	}
	return rows, nil
}

func (s *ExportService) repaymentRows(ctx context.Context) ([][]string, error) {
	repayments, err := s.repaymentRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(repayments))
	for _, r := range repayments {
		paidAt := ""
		if r.PaidAt != nil {
			paidAt = r.PaidAt.Format(timestampLayout)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			money.Format(r.Amount),
			r.DueDate.Format(timestampLayout),
			strconv.FormatBool(r.Paid),
			paidAt,
		})
	}
	return rows, nil
}

func (s *ExportService) momopayRows(ctx context.Context) ([][]string, error) {
	accounts, err := s.momopayRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(accounts))
	for _, m := range accounts {
		rows = append(rows, []string{
			m.Phone,
			money.Format(m.Balance),
			money.Format(m.FloatShared),
			m.MergedBatch.String(),
			m.UpdatedAt.Format(timestampLayout),
		})
	}
	return rows, nil
}

// WriteUsersCSV streams the users table, one row per borrower in insertion order
func (s *ExportService) WriteUsersCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.userRows(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(userColumns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteUsersXLSX streams the users table as a workbook
func (s *ExportService) WriteUsersXLSX(ctx context.Context, w io.Writer) error {
	rows, err := s.userRows(ctx)
	if err != nil {
		return err
	}
	f, err := buildWorkbook("Users", userColumns, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ExportWorkbooks writes timestamped users, repayments and float account workbooks into dir.
// Empty tables are skipped.
func (s *ExportService) ExportWorkbooks(ctx context.Context, dir string) ([]ReportFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	stamp := s.now().Format("20060102_150405")
	tables := []struct {
		prefix  string
		sheet   string
		columns []string
		load    func(context.Context) ([][]string, error)
	}{
		{"registered_users", "Users", userColumns, s.userRows},
		{"scheduled_repayments", "Repayments", repaymentColumns, s.repaymentRows},
		{"momopays", "MoMoPay", momopayColumns, s.momopayRows},
	}

	var files []ReportFile
	for _, table := range tables {
		rows, err := table.load(ctx)
		if err != nil {
			return files, fmt.Errorf("load %s: %w", table.prefix, err)
		}
		if len(rows) == 0 {
			log.Printf("⚠️ No %s data found to export", table.prefix)
			continue
		}

		name := fmt.Sprintf("%s_%s.xlsx", table.prefix, stamp)
		path := filepath.Join(dir, name)
		if err := writeWorkbook(path, table.sheet, table.columns, rows); err != nil {
			return files, fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("📄 Exported %d rows to %s", len(rows), path)
		files = append(files, ReportFile{Name: name, Path: path, Rows: len(rows)})
	}
	return files, nil
}

func writeWorkbook(path, sheet string, columns []string, rows [][]string) error {
	f, err := buildWorkbook(sheet, columns, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

func buildWorkbook(sheet string, columns []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}
