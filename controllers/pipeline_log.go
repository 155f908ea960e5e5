package controllers

import (
	"encoding/json"
	"log"
	"time"

	"masjidreview/models"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// pipelineLog acompanha uma chamada do webhook do começo ao fim: cria a
// linha em wa_logs na entrada e vai sobrescrevendo o campo result a cada
// estágio, então o último write reflete o desfecho. A primeira versão fazia
// isso com um update-fn fechado em closures aninhadas; virou um objeto
// explícito passado por referência pelos estágios.
//
// Todo write aqui é best-effort: falha de log nunca derruba o pipeline.
type pipelineLog struct {
	db *gorm.DB
	id string
}

func newPipelineLog(db *gorm.DB, rawBody string) *pipelineLog {
	p := &pipelineLog{db: db, id: uuid.NewString()}
	if db == nil {
		return p
	}

	ensureWaLogTable(db)

	entry := models.WaLog{
		ID:        p.id,
		RawBody:   rawBody,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("webhook: wa_log create failed: %v", err)
	}
	return p
}

// A tabela nasce sob demanda: o webhook precisa funcionar mesmo em deploy
// sem AUTOMIGRATE (o painel não conhece wa_logs).
func ensureWaLogTable(db *gorm.DB) {
	if db.HasTable(&models.WaLog{}) {
		return
	}
	if err := db.CreateTable(&models.WaLog{}).Error; err != nil {
		log.Printf("webhook: wa_log create table failed: %v", err)
	}
}

// recordStage sobrescreve result com o snapshot mais recente.
func (p *pipelineLog) recordStage(snapshot any) {
	if p.db == nil {
		return
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("webhook: wa_log marshal failed: %v", err)
		return
	}
	err = p.db.Model(&models.WaLog{}).
		Where("id = ?", p.id).
		Update("result", string(b)).Error
	if err != nil {
		log.Printf("webhook: wa_log update failed: %v", err)
	}
}

// recordFinal agenda o último snapshot fora do caminho da resposta HTTP.
func (p *pipelineLog) recordFinal(snapshot any) {
	if replyQueue != nil {
		replyQueue.Enqueue(func() { p.recordStage(snapshot) })
		return
	}
	go p.recordStage(snapshot)
}
