package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"cendeu-features-go/internal/types"
)

const (
	FieldInformationDate = "information_date"
	FieldSituation       = "situation"

	dateLayout = "2006-01-02"
)

var (
	errMissing    = errors.New("missing value")
	errNotInteger = errors.New("not an integer")
)

// ParseError reports a single raw record that could not be normalized.
// It never aborts the batch.
type ParseError struct {
	Index int
	Field string
	Value interface{}
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d: invalid %s %q: %v", e.Index, e.Field, valueString(e.Value), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Diagnostic converts the error into its wire form.
func (e *ParseError) Diagnostic() types.Diagnostic {
	return types.Diagnostic{
		Index:  e.Index,
		Field:  e.Field,
		Value:  valueString(e.Value),
		Reason: e.Err.Error(),
	}
}

// Normalize validates every raw record. Valid records are returned in input
// order; each malformed one yields a ParseError and is left out.
func Normalize(raw []types.RawDebt) ([]types.DebtRecord, []*ParseError) {
	records := make([]types.DebtRecord, 0, len(raw))
	var errs []*ParseError
	for i, r := range raw {
		rec, err := normalizeOne(i, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// Diagnostics flattens parse errors for presentation.
func Diagnostics(errs []*ParseError) []types.Diagnostic {
	if len(errs) == 0 {
		return nil
	}
	out := make([]types.Diagnostic, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Diagnostic())
	}
	return out
}

func normalizeOne(i int, r types.RawDebt) (types.DebtRecord, *ParseError) {
	dateVal := r[FieldInformationDate]
	date, err := ParseDate(dateVal)
	if err != nil {
		return types.DebtRecord{}, &ParseError{Index: i, Field: FieldInformationDate, Value: dateVal, Err: err}
	}
	sitVal := r[FieldSituation]
	situation, err := ParseSituation(sitVal)
	if err != nil {
		return types.DebtRecord{}, &ParseError{Index: i, Field: FieldSituation, Value: sitVal, Err: err}
	}
	return types.DebtRecord{InformationDate: date, Situation: situation}, nil
}

// ParseDate accepts a YYYY-MM-DD string or a time.Time and returns the
// calendar date at UTC midnight.
func ParseDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, errMissing
	case time.Time:
		if d.IsZero() {
			return time.Time{}, errMissing
		}
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, errMissing
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

// ParseSituation coerces integer-like values (JSON numbers, numeric strings)
// to an int severity code.
func ParseSituation(v interface{}) (int, error) {
	switch s := v.(type) {
	case nil:
		return 0, errMissing
	case int:
		return s, nil
	case int32:
		return int(s), nil
	case int64:
		return int(s), nil
	case float64:
		return floatToInt(s)
	case json.Number:
		return parseIntegral(s.String())
	case string:
		t := strings.TrimSpace(s)
		if t == "" {
			return 0, errMissing
		}
		return parseIntegral(t)
	default:
		return 0, fmt.Errorf("unsupported situation type %T", v)
	}
}

// parseIntegral accepts "3" and integral decimals such as "3.0".
func parseIntegral(s string) (int, error) {
	if n, err := strconv.ParseInt(s, 10, 0); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotInteger
	}
	return floatToInt(f)
}

// floatToInt rejects fractions and values an int cannot hold.
func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, errNotInteger
	}
	return int(f), nil
}

func valueString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
