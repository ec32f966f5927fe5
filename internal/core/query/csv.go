package query

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/altrapisos/crm/internal/core/domain"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"ID", "Company", "Website", "Contact", "Email", "Value", "Stage", "Products"}

// WriteCSV writes the header and one row per record. Products are joined
// with ';'.
func WriteCSV(w io.Writer, rs []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rs {
		row := []string{
			r.ID,
			r.CompanyName,
			r.Website,
			r.ContactPerson,
			r.ContactEmail,
			strconv.FormatFloat(r.DealValue, 'f', -1, 64),
			r.SaleStage,
			strings.Join(r.Product, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
