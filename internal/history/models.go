package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a recorded transaction.
type Status string

// Transaction states.
const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Entry is one outgoing transaction.
type Entry struct {
	ID        uuid.UUID       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Chain     string          `gorm:"type:varchar(16);index" json:"chain"`
	Network   string          `gorm:"type:varchar(16)" json:"network"`
	From      string          `gorm:"column:from_address;type:varchar(128);index" json:"from"`
	To        string          `gorm:"column:to_address;type:varchar(128)" json:"to"`
	Amount    decimal.Decimal `gorm:"type:decimal(78,18)" json:"amount"`
	TxHash    string          `gorm:"type:varchar(132);index" json:"tx_hash,omitempty"`
	Status    Status          `gorm:"type:varchar(16);default:pending" json:"status"`
	Error     string          `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName pins the table name.
func (Entry) TableName() string {
	return "transactions"
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Chain  string
	Status Status
	Limit  int
}
