package models

import "time"

type NotificationType string

const (
	NotificationStockLow NotificationType = "STOCK_LOW"
	NotificationSale     NotificationType = "SALE"
)

// Notification is a back-office alert created as a side effect of a
// sale. Creation is best-effort and never required for the sale to
// succeed.
type Notification struct {
	ID        int              `db:"id" json:"id"`
	UserID    int              `db:"user_id" json:"-"`
	Type      NotificationType `db:"type" json:"type"`
	Message   string           `db:"message" json:"message"`
	IsRead    bool             `db:"is_read" json:"isRead"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}
