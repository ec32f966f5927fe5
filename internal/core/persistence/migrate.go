package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/altrapisos/crm/internal/core/domain"
)

// backfillRecords decodes a stored record blob, upgrading legacy shapes:
// a single product string becomes a one-element list (or an empty list when
// blank), a missing or null product becomes an empty list, and a missing
// website becomes an empty string. changed reports whether any record needed
// upgrading so the caller can persist the backfilled form.
func backfillRecords(raw []byte) (records []domain.Record, changed bool, err error) {
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("decode records: %w", err)
	}

	records = make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		if row == nil {
			row = map[string]json.RawMessage{}
		}
		if fixed, upgraded := backfillProduct(row["product"]); upgraded {
			row["product"] = fixed
			changed = true
		}
		if _, ok := row["website"]; !ok {
			row["website"] = json.RawMessage(`""`)
			changed = true
		}

		b, err := json.Marshal(row)
		if err != nil {
			return nil, false, fmt.Errorf("re-encode record %d: %w", i, err)
		}
		var r domain.Record
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, false, fmt.Errorf("decode record %d: %w", i, err)
		}
		if r.Product == nil {
			r.Product = []string{}
		}
		records = append(records, r)
	}
	return records, changed, nil
}

func backfillProduct(v json.RawMessage) (json.RawMessage, bool) {
	if len(v) == 0 || string(v) == "null" {
		return json.RawMessage(`[]`), true
	}
	var single string
	if err := json.Unmarshal(v, &single); err == nil {
		if single == "" {
			return json.RawMessage(`[]`), true
		}
		b, _ := json.Marshal([]string{single})
		return b, true
	}
	return v, false
}
