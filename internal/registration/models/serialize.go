package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// record is the cache representation. Password is deliberately absent.
type record struct {
	RID          string       `json:"rid"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Token        string       `json:"token"`
	ManagerToken string       `json:"manager_token"`
	Status       Status       `json:"status"`
	MatrixStatus MatrixStatus `json:"matrix_status"`
	Version      int64        `json:"version"`
	Creation     string       `json:"creation"`
	Modification string       `json:"modification"`
}

// Marshal encodes r for storage with ISO-8601 timestamps.
func Marshal(r *Registration) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("marshal registration: nil record")
	}
	return json.Marshal(record{
		RID:          r.RID,
		Username:     r.Username,
		Email:        r.Email,
		Token:        r.Token,
		ManagerToken: r.ManagerToken,
		Status:       r.Status,
		MatrixStatus: r.MatrixStatus,
		Version:      r.Version,
		Creation:     r.Creation.UTC().Format(time.RFC3339Nano),
		Modification: r.Modification.UTC().Format(time.RFC3339Nano),
	})
}

// Unmarshal decodes a stored record and rejects unknown state values.
func Unmarshal(data []byte) (*Registration, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal registration: %w", err)
	}
	if rec.RID == "" {
		return nil, fmt.Errorf("unmarshal registration: missing rid")
	}
	if !rec.Status.IsValid() {
		return nil, fmt.Errorf("unmarshal registration %s: invalid status %q", rec.RID, rec.Status)
	}
	if !rec.MatrixStatus.IsValid() {
		return nil, fmt.Errorf("unmarshal registration %s: invalid matrix status %q", rec.RID, rec.MatrixStatus)
	}
	creation, err := time.Parse(time.RFC3339Nano, rec.Creation)
	if err != nil {
		return nil, fmt.Errorf("unmarshal registration %s: creation: %w", rec.RID, err)
	}
	modification, err := time.Parse(time.RFC3339Nano, rec.Modification)
	if err != nil {
		return nil, fmt.Errorf("unmarshal registration %s: modification: %w", rec.RID, err)
	}
	return &Registration{
		RID:          rec.RID,
		Username:     rec.Username,
		Email:        rec.Email,
		Token:        rec.Token,
		ManagerToken: rec.ManagerToken,
		Status:       rec.Status,
		MatrixStatus: rec.MatrixStatus,
		Version:      rec.Version,
		Creation:     creation,
		Modification: modification,
	}, nil
}
