package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NullFloat is a float64 that can be missing. Missing values propagate
// through joins and are excluded from aggregates; they are never coerced to
// zero, which would bias Sharpe, IC and drawdown.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps a present value
func Float(f float64) NullFloat {
	return NullFloat{Float64: f, Valid: true}
}

// Null returns a missing value
func Null() NullFloat {
	return NullFloat{}
}

// String renders the value or "null"
func (v NullFloat) String() string {
	if !v.Valid {
		return "null"
	}
	return fmt.Sprintf("%g", v.Float64)
}

// MarshalJSON encodes missing values as JSON null
func (v NullFloat) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float64)
}

// UnmarshalJSON decodes JSON null as missing
func (v *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Null()
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Float(f)
	return nil
}
