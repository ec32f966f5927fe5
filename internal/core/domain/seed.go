package domain

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"
)

//go:embed seed_records.json
var seedRecordsJSON []byte

// SeedRecordCount is the size of the built-in dataset.
const SeedRecordCount = 60

// SeedRecords returns the built-in lead dataset with every pipeline field
// reset: no owner, lead source "Otro", stage New, no products, zero value and
// dateAdded set to the day of now.
func SeedRecords(now time.Time) []Record {
	var base []Record
	if err := json.Unmarshal(seedRecordsJSON, &base); err != nil {
		panic(fmt.Sprintf("domain: corrupt seed dataset: %v", err))
	}
	today := now.Format(DateLayout)
	for i := range base {
		base[i].Owner = ""
		base[i].LeadSource = LeadSourceOther
		base[i].Product = []string{}
		base[i].DateAdded = today
		base[i].LastActivityDate = ""
		base[i].NextAction = ""
		base[i].NextActionDate = ""
		base[i].SaleStage = StageNew
		base[i].DealValue = 0
		base[i].Notes = ""
	}
	return base
}

// DateLayout is the ISO date format used by record date fields.
const DateLayout = "2006-01-02"
