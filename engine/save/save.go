// Package save implements JSON serialization and deserialization of the ledger.
package save

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nathoo/monovoice/types"
)

// FormatVersion identifies the snapshot layout.
const FormatVersion = "1"

// Snapshot is the JSON-serializable save format.
type Snapshot struct {
	Version      string              `json:"version"`
	Board        string              `json:"board,omitempty"`
	SavedAt      time.Time           `json:"saved_at"`
	Players      []types.Player      `json:"players"`
	Properties   []types.Property    `json:"properties"`
	Transactions []types.Transaction `json:"transactions"`
}

// Save serializes the ledger to JSON bytes.
func Save(l *types.Ledger, board string, now time.Time) ([]byte, error) {
	data := Snapshot{
		Version:      FormatVersion,
		Board:        board,
		SavedAt:      now.UTC(),
		Players:      l.Players,
		Properties:   l.Properties,
		Transactions: l.Transactions,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into a Snapshot.
func Load(data []byte) (*Snapshot, error) {
	var sd Snapshot
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Version != "" && sd.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", sd.Version)
	}
	// Ensure collections are never nil after load.
	if sd.Players == nil {
		sd.Players = []types.Player{}
	}
	for i := range sd.Players {
		if sd.Players[i].Properties == nil {
			sd.Players[i].Properties = []string{}
		}
	}
	if sd.Properties == nil {
		sd.Properties = []types.Property{}
	}
	if sd.Transactions == nil {
		sd.Transactions = []types.Transaction{}
	}
	return &sd, nil
}

// ApplySave replaces the ledger's collections with the snapshot's.
func ApplySave(l *types.Ledger, sd *Snapshot) {
	l.Players = sd.Players
	l.Properties = sd.Properties
	l.Transactions = sd.Transactions
}
