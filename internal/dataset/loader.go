package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"cendeu-features-go/internal/logger"
	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/types"
)

// Batch is a bureau export grouped by client, in first-seen order.
type Batch struct {
	Clients     []string
	Debts       map[string][]types.RawDebt
	SkippedRows int
}

// Load reads the first sheet of an xlsx export. Columns are detected from the
// header: cuit, information date and situation. Cell values are passed on as
// text; validating them is the normalizer's job.
func Load(path string) (Batch, error) {
	log := logger.New().WithField("component", "dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Batch{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Batch{}, fmt.Errorf("no sheets")
	}
	// raw values: date cells come back as serials, not display text
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Batch{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return Batch{}, fmt.Errorf("no header row")
	}
	cuitIdx, dateIdx, sitIdx := detectColumns(rows[0])
	if cuitIdx == -1 || dateIdx == -1 || sitIdx == -1 {
		return Batch{}, fmt.Errorf("missing columns: cuit=%d date=%d situation=%d", cuitIdx, dateIdx, sitIdx)
	}
	log.WithFields(map[string]interface{}{
		"cuitIdx":      cuitIdx,
		"dateIdx":      dateIdx,
		"situationIdx": sitIdx,
	}).Debug("detected column indices")

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	batch := Batch{Debts: map[string][]types.RawDebt{}}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		cuit := cell(r, cuitIdx)
		if cuit == "" {
			// rows without a client cannot be attributed
			batch.SkippedRows++
			continue
		}
		raw := types.RawDebt{}
		if v := cell(r, dateIdx); v != "" {
			raw[normalizer.FieldInformationDate] = dateCell(v, date1904)
		}
		if v := cell(r, sitIdx); v != "" {
			raw[normalizer.FieldSituation] = v
		}
		if _, ok := batch.Debts[cuit]; !ok {
			batch.Clients = append(batch.Clients, cuit)
		}
		batch.Debts[cuit] = append(batch.Debts[cuit], raw)
	}
	log.WithField("clients", len(batch.Clients)).
		WithField("skipped_rows", batch.SkippedRows).
		Info("dataset loaded")
	return batch, nil
}

func detectColumns(header []string) (cuitIdx, dateIdx, sitIdx int) {
	cuitIdx, dateIdx, sitIdx = -1, -1, -1
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "cuit") || strings.Contains(l, "cuil") || l == "id":
			if cuitIdx == -1 {
				cuitIdx = i
			}
		case strings.Contains(l, "date") || strings.Contains(l, "fecha"):
			if dateIdx == -1 {
				dateIdx = i
			}
		case strings.Contains(l, "situation") || strings.Contains(l, "situacion"):
			if sitIdx == -1 {
				sitIdx = i
			}
		}
	}
	return cuitIdx, dateIdx, sitIdx
}

// dateCell turns an Excel date serial into a time.Time; text is passed on
// unchanged for the normalizer to judge.
func dateCell(v string, date1904 bool) interface{} {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return v
	}
	return t
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}
