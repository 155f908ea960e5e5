package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"masjidreview/models"

	"github.com/jinzhu/gorm"
)

// Quantas linhas cada passada da busca considera. A primeira que vier ganha.
const matchLimit = 5

// Palavras genéricas de nome de masjid que não ajudam a distinguir nada:
// tipo de lugar, honoríficos e artigos curtos. "Masjid Agung Al-Falah" e
// "Masjid Al Falah" precisam cair no mesmo token ("falah").
var stopwords = map[string]bool{
	"masjid":   true,
	"mesjid":   true,
	"musholla": true,
	"mushola":  true,
	"musala":   true,
	"surau":    true,
	"agung":    true,
	"raya":     true,
	"besar":    true,
	"jami":     true,
	"jamik":    true,
	"al":       true,
	"an":       true,
	"ar":       true,
	"as":       true,
	"the":      true,
}

// SearchTokens quebra o nome em tokens úteis pra busca: separa por espaço e
// hífen, tira pontuação das bordas, descarta stopwords e tokens com menos
// de 2 caracteres. Saída em minúsculas.
func SearchTokens(name string) []string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})

	var out []string
	for _, f := range fields {
		tok := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if utf8.RuneCountInString(tok) < 2 || stopwords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// tokenPredicate monta o OR parametrizado de substrings. Nunca interpola o
// texto do usuário no SQL: tokens entram como bind args.
func tokenPredicate(tokens []string) (string, []interface{}) {
	conds := make([]string, 0, len(tokens))
	args := make([]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+tok+"%")
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// MatchMasjid resolve um nome livre (e cidade opcional) pra um masjid
// aprovado. OR de tokens troca precisão por recall de propósito: "Masjid
// Agung Baiturrahman" e "Baiturrahman Aceh" precisam achar o mesmo
// registro, e falso positivo é tolerável porque toda review criada fica
// pendente de moderação. Passada com cidade primeiro; sem resultado, tenta
// de novo sem a cidade. Retorna nil (sem erro) quando não há match.
func MatchMasjid(db *gorm.DB, name string, city string) (*models.Masjid, error) {
	tokens := SearchTokens(name)
	if len(tokens) == 0 {
		return nil, nil
	}

	cond, args := tokenPredicate(tokens)
	city = strings.TrimSpace(city)

	if city != "" {
		var rows []models.Masjid
		err := db.
			Where("status = ?", models.MASJID_STATUS_APPROVED).
			Where(cond, args...).
			Where("LOWER(city) LIKE ?", "%"+strings.ToLower(city)+"%").
			Limit(matchLimit).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	}

	var rows []models.Masjid
	err := db.
		Where("status = ?", models.MASJID_STATUS_APPROVED).
		Where(cond, args...).
		Limit(matchLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return nil, nil
}

// FindNearDuplicate é a variante read-only usada pelo painel na hora de
// cadastrar masjid: mesmo predicado de tokens, mas restrito à mesma cidade
// e excluindo o próprio registro. Não é usada pelo webhook.
func FindNearDuplicate(db *gorm.DB, name string, city string, excludeID int64) (*models.Masjid, error) {
	tokens := SearchTokens(name)
	if len(tokens) == 0 {
		return nil, nil
	}

	cond, args := tokenPredicate(tokens)

	var rows []models.Masjid
	err := db.
		Where("status = ?", models.MASJID_STATUS_APPROVED).
		Where(cond, args...).
		Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(city))).
		Where("id <> ?", excludeID).
		Limit(matchLimit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return nil, nil
}
