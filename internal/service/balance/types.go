package balance

import (
	"time"

	"github.com/mrz1836/polywallet/internal/chain"
)

// AddressBalance is one row of a balance query.
type AddressBalance struct {
	Chain     chain.ID      `json:"chain"`
	Network   chain.Network `json:"network"`
	Address   string        `json:"address"`
	Balance   string        `json:"balance"`
	Symbol    string        `json:"symbol"`
	Error     string        `json:"error,omitempty"`
	Stale     bool          `json:"stale,omitempty"`
	Cached    bool          `json:"cached,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// OK reports whether the row carries a balance rather than an error.
func (b AddressBalance) OK() bool {
	return b.Error == ""
}

// ProgressUpdate reports batch progress.
type ProgressUpdate struct {
	Total     int
	Completed int
	Address   string
}

// ProgressCallback is called after each address of a batch completes.
type ProgressCallback func(ProgressUpdate)
