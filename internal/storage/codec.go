package storage

import (
	"context"
	"encoding/json"
)

// ReadJSON decodes the value at key into v. A missing key or a corrupt
// payload both report ok=false; corruption is recovered, not fatal, so
// a half-written value degrades to "start fresh".
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

// WriteJSON encodes v and stores it at key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(b))
}
