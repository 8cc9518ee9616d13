package models

import (
	"encoding/json"
	"fmt"
)

// Persistence keys of the state blob and the authentication flag
const (
	StateKey = "veira-data"
	AuthKey  = "veira-auth"
)

// AppState is the whole persisted application state
type AppState struct {
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Settings
}

// EncodeState serializes the state blob
func EncodeState(s *AppState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses and sanity-checks a state blob
func DecodeState(data []byte) (*AppState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode state: empty blob")
	}

	st := &AppState{Settings: DefaultSettings()}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	for _, p := range st.Products {
		if p.ID == "" || p.Stock < 0 {
			return nil, fmt.Errorf("failed to decode state: bad product %q", p.ID)
		}
	}
	for _, t := range st.Transactions {
		if t.ID == "" {
			return nil, fmt.Errorf("failed to decode state: transaction without id")
		}
		if t.Anomaly != nil && t.Anomaly.Reason == "" {
			return nil, fmt.Errorf("failed to decode state: transaction %s flagged without reason", t.ID)
		}
	}
	if st.VATRate.IsNegative() {
		return nil, fmt.Errorf("failed to decode state: negative vat rate")
	}

	return st, nil
}
