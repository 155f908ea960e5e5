package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"masjidreview/config"
	dbpkg "masjidreview/db"
	"masjidreview/matching"
	"masjidreview/models"
	"masjidreview/tools"
	"masjidreview/workers"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Payload que o Fonnte manda no webhook de mensagem recebida. Grupo chega
// com sender terminando em "@g.us" e o telefone de quem falou em member.
type FonntePayload struct {
	Device  string `json:"device"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Member  string `json:"member"`
}

// Outcomes gravados em wa_logs.result. O Fonnte não lê nada disso: pra ele
// só existe 200 (não reenvia) e 400 (pedido inválido).
const (
	OUTCOME_MALFORMED_BODY         = "malformed_body"
	OUTCOME_MISSING_MESSAGE        = "missing_message"
	OUTCOME_UNAUTHORIZED_DEVICE    = "unauthorized_device"
	OUTCOME_NO_TRIGGER             = "no_trigger"
	OUTCOME_EMPTY_AFTER_STRIP      = "empty_after_strip"
	OUTCOME_EXTRACTION_UNAVAILABLE = "extraction_unavailable"
	OUTCOME_UNPARSABLE_EXTRACTION  = "unparsable_extraction"
	OUTCOME_NOT_AN_ARRAY           = "not_an_array"
	OUTCOME_EMPTY_EXTRACTION       = "empty_extraction"
	OUTCOME_PROCESSED              = "processed"
	OUTCOME_INTERNAL_ERROR         = "internal_error"
)

// Status por item extraído.
const (
	ITEM_STATUS_CREATED   = "created"
	ITEM_STATUS_NOT_FOUND = "masjid_not_found"
	ITEM_STATUS_SKIPPED   = "skipped"
	ITEM_STATUS_ERROR     = "error"
)

// itemResult é o rastro de cada item extraído: vai pro wa_log e pro corpo
// da resposta (útil pra operação, ignorado pelo Fonnte).
type itemResult struct {
	VenueName         string `json:"venue_name,omitempty"`
	MatchedMasjidID   *int64 `json:"matched_masjid_id"`
	MatchedMasjidName string `json:"matched_masjid_name,omitempty"`
	ReviewID          *int64 `json:"review_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason,omitempty"`
}

// Seams de teste: os testes trocam por stubs pra não bater em serviço real.
var (
	extractReviews = tools.ExtractReviews
	sendReply      = tools.SendFonnteText
)

// Timeout das chamadas externas disparadas pelo webhook. Chamada pendurada
// não pode segurar a resposta: o Fonnte reenvia webhook lento e aí a review
// duplica.
const externalCallTimeout = 45 * time.Second

var (
	webhookCfg  config.Configuration
	replyQueue  *workers.Dispatcher
	groupTrigRe *regexp.Regexp
)

// Menção a participante: "@" seguido de dígitos, em qualquer lugar do texto.
var mentionRe = regexp.MustCompile(`@\d+`)

// SetupWebhook injeta config e o dispatcher de respostas. Chamar no boot
// (e nos testes) antes de registrar as rotas.
func SetupWebhook(cfg config.Configuration, d *workers.Dispatcher) {
	webhookCfg = config.ApplyDefaults(cfg)
	replyQueue = d
	groupTrigRe = regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(webhookCfg.Webhook.GroupTrigger) + `\b`)
}

// GET /webhook/fonnte — health check.
func WebhookHealth(c *gin.Context) {
	RespondSuccess(c, gin.H{"ok": true})
}

// POST /webhook/fonnte — pipeline completo de ingestão.
//
// Contrato com o provedor: 400 só pra admissão (corpo inválido, mensagem
// ausente, device não autorizado); qualquer outro desfecho é 200, inclusive
// falha interna. 5xx faria o Fonnte reenviar e cada reenvio viraria review
// duplicada.
func WebhookFonnte(c *gin.Context) {
	db := dbpkg.DBInstance(c)

	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	plog := newPipelineLog(db, string(raw))

	defer func() {
		if r := recover(); r != nil {
			log.Printf("webhook: panic: %v", r)
			plog.recordStage(gin.H{"status": OUTCOME_INTERNAL_ERROR, "detail": fmt.Sprint(r)})
			if !c.Writer.Written() {
				c.JSON(http.StatusOK, gin.H{"ok": false, "error": "internal error"})
			}
		}
	}()

	// ---- admissão ----

	var payload FonntePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		plog.recordStage(gin.H{"status": OUTCOME_MALFORMED_BODY})
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		plog.recordStage(gin.H{"status": OUTCOME_MISSING_MESSAGE})
		RespondError(c, "missing message", http.StatusBadRequest)
		return
	}

	// Containment de propósito (não igualdade): o Fonnte decora o device id.
	// Vide nota no config. Admissão barrada = nada roda depois daqui.
	if !strings.Contains(payload.Device, webhookCfg.Webhook.DeviceAllow) {
		plog.recordStage(gin.H{"status": OUTCOME_UNAUTHORIZED_DEVICE, "device": payload.Device})
		RespondError(c, "unauthorized device", http.StatusBadRequest)
		return
	}

	// ---- classificação ----

	ev, outcome := classifyMessage(payload, webhookCfg)
	if outcome != "" {
		// ignorado de propósito, sem resposta pro usuário
		plog.recordStage(gin.H{"status": outcome, "group": ev.IsGroup})
		RespondSuccess(c, gin.H{"ok": true, "info": outcome})
		return
	}
	plog.recordStage(gin.H{"status": "classified", "group": ev.IsGroup, "message": ev.Message})

	// ---- extração ----

	ctx, cancel := context.WithTimeout(context.Background(), externalCallTimeout)
	defer cancel()

	items, rawOut, err := extractReviews(ctx, ev.Message)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrUnparsableExtraction):
			plog.recordStage(gin.H{
				"status":       OUTCOME_UNPARSABLE_EXTRACTION,
				"model_output": truncate(rawOut, 500),
			})
			queueReply(ev.ReplyTarget, guidanceReply(ev.IsGroup, webhookCfg))
			RespondSuccess(c, gin.H{"ok": false, "error": OUTCOME_UNPARSABLE_EXTRACTION})
		case errors.Is(err, tools.ErrNotAnArray):
			plog.recordStage(gin.H{
				"status":       OUTCOME_NOT_AN_ARRAY,
				"model_output": truncate(rawOut, 500),
			})
			RespondSuccess(c, gin.H{"ok": false, "error": OUTCOME_NOT_AN_ARRAY})
		default:
			// falha de rede/serviço: 200 pro Fonnte não reenviar, sem resposta
			// pro usuário (melhor silêncio que resposta errada)
			log.Printf("webhook: extraction call failed: %v", err)
			plog.recordStage(gin.H{"status": OUTCOME_EXTRACTION_UNAVAILABLE, "detail": err.Error()})
			RespondSuccess(c, gin.H{"ok": false, "error": OUTCOME_EXTRACTION_UNAVAILABLE})
		}
		return
	}

	if len(items) == 0 {
		plog.recordStage(gin.H{"status": OUTCOME_EMPTY_EXTRACTION})
		queueReply(ev.ReplyTarget, guidanceReply(ev.IsGroup, webhookCfg))
		RespondSuccess(c, gin.H{"ok": true, "created": 0, "info": OUTCOME_EMPTY_EXTRACTION})
		return
	}

	// ---- match + persistência, item a item ----

	results := persistItems(db, ev, items)
	plog.recordStage(gin.H{"status": OUTCOME_PROCESSED, "results": results})

	var createdNames, missedNames []string
	created := 0
	for _, r := range results {
		switch r.Status {
		case ITEM_STATUS_CREATED:
			created++
			createdNames = append(createdNames, r.MatchedMasjidName)
		case ITEM_STATUS_NOT_FOUND:
			missedNames = append(missedNames, r.VenueName)
		}
	}

	// ---- resposta (fire-and-forget) ----

	queueReply(ev.ReplyTarget, composeReply(createdNames, missedNames, ev.IsGroup, webhookCfg))
	plog.recordFinal(gin.H{"status": OUTCOME_PROCESSED, "created": created, "results": results})

	RespondSuccess(c, gin.H{"ok": true, "created": created, "results": results})
}

// inboundEvent é o evento já classificado: efêmero, vive só na chamada.
type inboundEvent struct {
	IsGroup     bool
	Message     string
	DisplayName string
	ReplyTarget string
	Phone       string
}

// classifyMessage aplica o gate de trigger (só grupo), limpa menções e
// deriva nome de exibição, alvo de resposta e telefone do remetente.
// Segundo retorno não-vazio = terminar em silêncio com aquele outcome.
func classifyMessage(p FonntePayload, cfg config.Configuration) (inboundEvent, string) {
	sender := strings.TrimSpace(p.Sender)
	ev := inboundEvent{IsGroup: strings.HasSuffix(sender, "@g.us")}

	msg := p.Message
	if ev.IsGroup {
		loc := groupTrigRe.FindStringIndex(msg)
		if loc == nil {
			return ev, OUTCOME_NO_TRIGGER
		}
		msg = msg[loc[1]:]
	}

	msg = strings.TrimSpace(mentionRe.ReplaceAllString(msg, ""))
	if msg == "" {
		return ev, OUTCOME_EMPTY_AFTER_STRIP
	}
	ev.Message = msg

	name := strings.TrimSpace(p.Name)
	if name == "" {
		if ev.IsGroup {
			name = strings.TrimSpace(p.Member)
		} else {
			name = tools.StripWaDomain(sender)
		}
	}
	if name == "" {
		name = cfg.Webhook.AnonymousName
	}
	ev.DisplayName = name

	if ev.IsGroup {
		// resposta vai pro grupo; o telefone de quem falou vem em member
		ev.ReplyTarget = sender
		ev.Phone = strings.TrimSpace(p.Member)
	} else {
		ev.ReplyTarget = tools.StripWaDomain(sender)
		ev.Phone = tools.StripWaDomain(sender)
	}

	return ev, ""
}

// persistItems roda o matcher e cria as reviews pendentes, item a item.
// Nenhum item derruba o lote: erro vira status no resultado e segue.
func persistItems(db *gorm.DB, ev inboundEvent, items []tools.ExtractedItem) []itemResult {
	waNumber := ev.Phone
	if n, err := tools.NormalizeWaNumber(ev.Phone); err == nil {
		waNumber = n
	}

	// vínculo com perfil existente é oportunista; sem match, fica nulo
	var userID *int64
	if db != nil && waNumber != "" {
		var u models.User
		if err := db.Where("phone = ?", waNumber).First(&u).Error; err == nil {
			userID = &u.ID
		}
	}

	results := make([]itemResult, 0, len(items))
	for _, it := range items {
		venueName := strings.TrimSpace(it.VenueName)
		if venueName == "" {
			results = append(results, itemResult{
				Status: ITEM_STATUS_SKIPPED,
				Reason: "no masjid name",
			})
			continue
		}

		masjid, err := matching.MatchMasjid(db, venueName, it.City)
		if err != nil {
			log.Printf("webhook: matcher error for %q: %v", venueName, err)
			results = append(results, itemResult{
				VenueName: venueName,
				Status:    ITEM_STATUS_ERROR,
				Reason:    err.Error(),
			})
			continue
		}
		if masjid == nil {
			results = append(results, itemResult{
				VenueName: venueName,
				Status:    ITEM_STATUS_NOT_FOUND,
			})
			continue
		}

		review := models.Review{
			MasjidID:         masjid.ID,
			ReviewerName:     ev.DisplayName,
			Rating:           clampRating(it.Rating),
			ShortDescription: strings.TrimSpace(it.ReviewText),
			SourcePlatform:   models.REVIEW_SOURCE_WA_BOT,
			Status:           models.REVIEW_STATUS_PENDING,
			WaNumber:         waNumber,
			UserID:           userID,
		}
		if err := db.Create(&review).Error; err != nil {
			log.Printf("webhook: review insert failed for masjid %d: %v", masjid.ID, err)
			results = append(results, itemResult{
				VenueName:       venueName,
				MatchedMasjidID: &masjid.ID,
				Status:          ITEM_STATUS_ERROR,
				Reason:          err.Error(),
			})
			continue
		}

		results = append(results, itemResult{
			VenueName:         venueName,
			MatchedMasjidID:   &masjid.ID,
			MatchedMasjidName: masjid.Name,
			ReviewID:          &review.ID,
			Status:            ITEM_STATUS_CREATED,
		})
	}

	return results
}

func clampRating(r float64) int {
	n := int(r + 0.5)
	if n < 1 || n > 5 {
		return 0
	}
	return n
}

// composeReply monta a única mensagem de resposta da chamada.
func composeReply(created []string, missed []string, isGroup bool, cfg config.Configuration) string {
	switch {
	case len(created) > 0:
		msg := "Alhamdulillah, review kamu sudah kami terima untuk: " +
			strings.Join(created, ", ") +
			". Review akan tampil setelah diverifikasi oleh admin. Jazakallahu khairan! 🙏"
		if len(missed) > 0 {
			msg += "\n\nMasjid berikut belum terdaftar: " +
				strings.Join(missed, ", ") +
				". Insya Allah admin kami akan menambahkannya."
		}
		return msg
	case len(missed) > 0:
		return "Maaf, masjid berikut belum terdaftar di database kami: " +
			strings.Join(missed, ", ") +
			". Insya Allah admin kami akan segera menambahkannya, dan review kamu bisa dikirim ulang setelahnya. Jazakallahu khairan!"
	default:
		return guidanceReply(isGroup, cfg)
	}
}

// guidanceReply explica o formato esperado; em grupo lembra do trigger.
func guidanceReply(isGroup bool, cfg config.Configuration) string {
	if isGroup {
		return "Maaf, kami tidak menemukan review masjid di pesan kamu. " +
			"Tulis: " + cfg.Webhook.GroupTrigger + " <nama masjid>: <pendapat kamu>. " +
			"Contoh: " + cfg.Webhook.GroupTrigger + " Masjid Baiturrahman: bersih dan nyaman. Rating 4/5"
	}
	return "Maaf, kami tidak menemukan review masjid di pesan kamu. " +
		"Contoh format: Review Masjid Baiturrahman: bersih dan nyaman. Rating 4/5"
}

// queueReply agenda o envio fora do caminho da resposta HTTP. Falha de
// envio é engolida (só log): a review já foi criada, a resposta pro usuário
// é conveniência.
func queueReply(target string, message string) {
	if target == "" || message == "" {
		return
	}

	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), externalCallTimeout)
		defer cancel()
		if err := sendReply(ctx, target, message); err != nil {
			log.Printf("webhook: reply send failed: %v", err)
		}
	}

	if replyQueue != nil {
		replyQueue.Enqueue(task)
		return
	}
	go task()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
