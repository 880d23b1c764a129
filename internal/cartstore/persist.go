package cartstore

import (
	"errors"
	"fmt"

	"glowloops/internal/domain"

	json "github.com/goccy/go-json"
)

// storageVersion is bumped whenever the persisted shape changes.
const storageVersion = 1

type envelope struct {
	State   domain.CartSnapshot `json:"state"`
	Version int                 `json:"version"`
}

func encodeSnapshot(snap domain.CartSnapshot) ([]byte, error) {
	if snap.Items == nil {
		snap.Items = []domain.LineItem{}
	}
	return json.Marshal(envelope{State: snap, Version: storageVersion})
}

func decodeSnapshot(raw []byte) (domain.CartSnapshot, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.CartSnapshot{}, err
	}
	if env.Version != storageVersion {
		return domain.CartSnapshot{}, fmt.Errorf("unsupported cart record version %d", env.Version)
	}
	for _, it := range env.State.Items {
		if it.ID == "" || it.ProductID == "" || it.Quantity < 1 {
			return domain.CartSnapshot{}, errors.New("cart record holds an invalid line item")
		}
	}
	return env.State, nil
}
