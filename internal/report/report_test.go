package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/turf-booking/internal/model"
)

func sampleRows(n int) []model.ReportRow {
	rows := make([]model.ReportRow, 0, n)
	base := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rows = append(rows, model.ReportRow{
			BookingID:   uint64(i + 1),
			Username:    "alice",
			TurfName:    "Green Field",
			BookingTime: base.Add(time.Duration(i) * time.Hour),
			Status:      model.StatusConfirmed,
			AmountPaid:  decimal.RequireFromString("750"),
		})
	}
	return rows
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleRows(3)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	// enough rows to spill onto a second page
	var big bytes.Buffer
	require.NoError(t, WritePDF(&big, sampleRows(60)))
	assert.Greater(t, big.Len(), buf.Len())
}

func TestWritePDF_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	rows := sampleRows(2)
	rows[1].Status = model.StatusCancelled
	rows[1].AmountPaid = decimal.RequireFromString("999.5")
	require.NoError(t, WriteExcel(&buf, rows))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bookings Report"}, f.GetSheetList())
	got, err := f.GetRows("Bookings Report")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Username", "Turf Name", "Booking Time", "Status", "Amount Paid (Rs)"}, got[0])
	assert.Equal(t, []string{"alice", "Green Field", "2030-05-01 09:00", "Confirmed", "750"}, got[1])
	assert.Equal(t, "Cancelled", got[2][3])
	assert.Equal(t, "999.5", got[2][4])
}
