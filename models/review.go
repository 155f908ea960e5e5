package models

import "time"

/************************************************
/**** MARK: REVIEW STATUS ****/
/************************************************/
const REVIEW_STATUS_PENDING = "pending"
const REVIEW_STATUS_APPROVED = "approved"
const REVIEW_STATUS_REJECTED = "rejected"

/************************************************
/**** MARK: REVIEW SOURCE ****/
/************************************************/
const REVIEW_SOURCE_WA_BOT = "wa_bot"
const REVIEW_SOURCE_WEB = "web"

// Review representa uma avaliação de masjid. O webhook só cria registros
// com status "pending" e source "wa_bot"; moderação e edição ficam com o
// painel administrativo.
type Review struct {
	ID               int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	MasjidID         int64      `gorm:"not null;index" json:"masjid_id"`
	ReviewerName     string     `gorm:"not null" json:"reviewer_name"`
	Rating           int        `gorm:"default:0" json:"rating"` // 1-5, 0 = não informado
	ShortDescription string     `gorm:"type:text" json:"short_description"`
	SourcePlatform   string     `gorm:"not null;default:'web'" json:"source_platform"`
	Status           string     `gorm:"not null;default:'pending';index" json:"status"`
	WaNumber         string     `gorm:"default:''" json:"wa_number"`
	UserID           *int64     `gorm:"index" json:"user_id"`
	CreatedAt        *time.Time `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}
