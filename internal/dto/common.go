package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// FlexInt accepts a JSON number or a numeric string. Form selects post
// numbers as strings, so both "7" and 7 decode to 7; "" and null decode to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}

	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = 0
			return nil
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		*f = FlexInt(value)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return err
	}
	value, err := number.Int64()
	if err != nil {
		return fmt.Errorf("invalid integer %s", number)
	}
	*f = FlexInt(value)
	return nil
}

// Int returns the plain int value.
func (f FlexInt) Int() int {
	return int(f)
}

// Uint returns the value as an identifier, clamping negatives to zero.
func (f FlexInt) Uint() uint {
	if f < 0 {
		return 0
	}
	return uint(f)
}
