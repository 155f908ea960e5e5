package models

import "time"

/************************************************
/**** MARK: MASJID STATUS ****/
/************************************************/
const MASJID_STATUS_APPROVED = "approved"
const MASJID_STATUS_PENDING = "pending"
const MASJID_STATUS_REJECTED = "rejected"

// Masjid representa um local avaliável. O cadastro/aprovação acontece no
// painel administrativo; o pipeline do webhook só lê, e só considera
// registros com status "approved" na busca aproximada.
type Masjid struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name      string     `gorm:"not null;index" json:"name" form:"name"`
	City      string     `gorm:"index" json:"city" form:"city"`
	Address   string     `gorm:"type:text" json:"address" form:"address"`
	Status    string     `gorm:"not null;default:'pending';index" json:"status" form:"status"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
