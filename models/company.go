package models

import "time"

// Company is a customer, or an analytical agency that reports on ledgers.
type Company struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Remark     string     `db:"remark" json:"remark,omitempty"`
	CategoryID int64      `db:"category_id" json:"category_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
