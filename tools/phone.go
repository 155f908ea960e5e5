package tools

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizeWaNumber normaliza um telefone pro formato internacional da
// Indonésia, sem '+', como o Fonnte espera.
//
// Heurística:
// - remove tudo que não é dígito
// - "08..." vira "628..." (troca o 0 inicial pelo DDI)
// - "62..." fica como está
// - "8..." sem DDI ganha o prefixo 62
func NormalizeWaNumber(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone")
	}

	// mantém apenas dígitos
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if phone == "" {
		return "", fmt.Errorf("no digits in phone: %q", raw)
	}

	switch {
	case strings.HasPrefix(phone, "08"):
		phone = "62" + phone[1:]
	case strings.HasPrefix(phone, "62"):
		// já está no formato internacional
	case strings.HasPrefix(phone, "8"):
		phone = "62" + phone
	}

	return phone, nil
}

// StripWaDomain tira o sufixo de domínio do JID ("628xx@s.whatsapp.net",
// "1203...@g.us"), sobrando só o identificador.
func StripWaDomain(jid string) string {
	jid = strings.TrimSpace(jid)
	if i := strings.Index(jid, "@"); i >= 0 {
		return jid[:i]
	}
	return jid
}
