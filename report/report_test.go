package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"precisionpulse/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func sample() []models.Container {
	return []models.Container{
		{
			Building: models.BuildingDC5, Shift: models.Shift1, WorkDate: "2026-03-02",
			ContainerNumber: "MSKU1", PiecesTotal: 12000, Palletized: true,
			PayTotal: decimal.NewFromInt(100),
			Workers: datatypes.NewJSONType([]models.WorkerContribution{
				{Name: "Ana", MinutesWorked: 200, PercentContribution: decimal.NewFromInt(60), Payout: decimal.NewFromInt(60)},
				{Name: "Bo", MinutesWorked: 150, PercentContribution: decimal.NewFromInt(40), Payout: decimal.NewFromInt(40)},
			}),
		},
		{
			Building: models.BuildingDC11, Shift: models.Shift2, WorkDate: "2026-03-03",
			ContainerNumber: "TGHU2", PiecesTotal: 3500, PayTotal: decimal.NewFromInt(180),
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sample())
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"2026-03-02", "DC5", "1st", "MSKU1", "12000", "0", "Yes", "100.00", "Ana", "200", "60.00", "60.00"}, rows[0])
	assert.Equal(t, "Bo", rows[1][8])
	assert.Equal(t, "40.00", rows[1][11])
	assert.Equal(t, []string{"2026-03-03", "DC11", "2nd", "TGHU2", "3500", "0", "No", "180.00", "", "", "", ""}, rows[2])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
}

func TestXLSX(t *testing.T) {
	raw, err := XLSX(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Container Payouts"}, f.GetSheetList())

	title, err := f.GetCellValue("Container Payouts", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Work Date", title)

	worker, err := f.GetCellValue("Container Payouts", "I3")
	require.NoError(t, err)
	assert.Equal(t, "Bo", worker)

	pay, err := f.GetCellValue("Container Payouts", "H4")
	require.NoError(t, err)
	assert.Equal(t, "180", pay)
}
