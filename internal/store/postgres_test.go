package store

import (
	"testing"
	"time"

	"cendeu-features-go/internal/normalizer"
	"cendeu-features-go/internal/types"
)

func TestRowToRawPassesNullsAsMissing(t *testing.T) {
	d := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	s := int64(3)

	raw := rowToRaw(&d, &s)
	records, errs := normalizer.Normalize([]types.RawDebt{raw, rowToRaw(nil, &s), rowToRaw(&d, nil)})
	if len(records) != 1 || records[0].Situation != 3 || !records[0].InformationDate.Equal(d) {
		t.Fatalf("unexpected records: %+v", records)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 parse errors, got %d", len(errs))
	}
	if errs[0].Field != normalizer.FieldInformationDate || errs[1].Field != normalizer.FieldSituation {
		t.Fatalf("unexpected fields: %s, %s", errs[0].Field, errs[1].Field)
	}
}
