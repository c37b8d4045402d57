package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/dataset"
)

var rows = []dataset.WasteRecord{
	{Year: 2022, State: "Texas", Sector: "Residential", SubSector: dataset.NotApplicable, FoodType: "Produce", TonsWaste: 100},
	{Year: 2023, State: "Texas", Sector: "Retail", SubSector: "Grocery", FoodType: "Produce", TonsWaste: 1234567},
	{Year: 2023, State: "Ohio", Sector: "Farm", SubSector: dataset.NotApplicable, FoodType: "Dairy & Eggs", TonsWaste: 60},
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, rows, summaryParams{By: "food_type", Mode: common.Total, K: 5})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "United States, 2023")
	assert.Contains(t, out, "1,234,627 tons")
	assert.Contains(t, out, "Dairy & Eggs")
	assert.Contains(t, out, "Top states (total)")
	assert.Contains(t, out, "1,234,567")
}

func TestPrintSummaryForState(t *testing.T) {
	var buf bytes.Buffer
	err := printSummary(&buf, rows, summaryParams{Year: 2022, State: "Texas", By: "subsector", Mode: common.PerCapita, K: 5})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Texas, 2022")
	assert.Contains(t, out, "Residential")
	assert.NotContains(t, out, "Top states")
}

func TestPrintSummaryErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, printSummary(&buf, rows, summaryParams{Year: 1999, By: "subsector"}))
	assert.Error(t, printSummary(&buf, rows, summaryParams{By: "color"}))
	assert.Error(t, printSummary(&buf, nil, summaryParams{By: "subsector"}))
}

func TestPrintUnresolved(t *testing.T) {
	var buf bytes.Buffer
	printUnresolved(&buf, 52, nil)
	assert.Equal(t, "All 52 regions resolve to a state name.\n", buf.String())

	buf.Reset()
	printUnresolved(&buf, 52, []string{"72"})
	assert.Contains(t, buf.String(), "1 of 52 regions render as no data")
	assert.Contains(t, buf.String(), "72")
	assert.True(t, strings.HasPrefix(buf.String(), "1 of 52 regions render as no data\n"), buf.String())
}
