package models

// WaLog é o registro de diagnóstico do webhook: uma linha por chamada,
// com o corpo bruto e um snapshot JSON do resultado que é sobrescrito
// conforme o pipeline avança (o último write reflete o desfecho final).
// O Fonnte não dá garantia de entrega, então isso é a única trilha de
// postmortem que temos. Nunca apagamos linhas por aqui.
//
// CreatedAt é texto (RFC3339) de propósito: o schema da tabela é
// (id text, raw_body text, result text, created_at text).
type WaLog struct {
	ID      string `gorm:"primary_key" json:"id"`
	RawBody string `gorm:"type:text" json:"raw_body"`
	Result  string `gorm:"type:text" json:"result"`
	// gorm trataria CreatedAt como timestamp; mantemos texto.
	CreatedAt string `gorm:"type:text" json:"created_at"`
}

func (WaLog) TableName() string {
	return "wa_logs"
}
