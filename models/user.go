package models

import "time"

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_ACTIVE = "active"
const USER_STATUS_BLOCKED = "blocked"

// User representa um perfil cadastrado pelo painel administrativo.
// O webhook só faz lookup por telefone (normalizado) para vincular a
// review a um perfil existente; nunca cria nem altera usuários.
type User struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name      string     `gorm:"not null" json:"name" form:"name"`
	Phone     string     `gorm:"index" json:"phone" form:"phone"`
	Role      string     `gorm:"default:''" json:"role" form:"role"`
	Status    string     `gorm:"not null;default:'active'" json:"status" form:"status"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
