package types

import "time"

// RawDebt is one debt line as the bureau reports it, before validation.
// Values keep whatever JSON/xlsx type they arrived with.
type RawDebt map[string]interface{}

type DebtRecord struct {
	InformationDate time.Time `json:"information_date"`
	Situation       int       `json:"situation"`
}

// Diagnostic describes a raw record that was dropped during normalization.
type Diagnostic struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}
