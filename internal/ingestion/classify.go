package ingestion

import (
	"regexp"
	"strings"

	"github.com/mnemograph/mnemograph-backend/internal/domain"
)

var (
	definitionRe = regexp.MustCompile(`definition|defined as`)
	startsDefRe  = regexp.MustCompile(`^\s*(is|means|refers to)\b`)
	methodTermRe = regexp.MustCompile(`method|algorithm|approach|technique`)
	methodVerbRe = regexp.MustCompile(`how to|implement|calculate`)
	resultRe     = regexp.MustCompile(`result|showed|demonstrated|proved|conclus`)
	limitationRe = regexp.MustCompile(`limitation|however|but|fail`)
)

// ClassifyClaim applies the heuristic ladder to chunk content; the first
// matching rule wins: definition, method, result, limitation, else unknown.
func ClassifyClaim(content string) domain.ClaimType {
	text := strings.ToLower(content)
	switch {
	case definitionRe.MatchString(text) || startsDefRe.MatchString(text):
		return domain.ClaimDefinition
	case methodTermRe.MatchString(text) && methodVerbRe.MatchString(text):
		return domain.ClaimMethod
	case resultRe.MatchString(text):
		return domain.ClaimResult
	case limitationRe.MatchString(text):
		return domain.ClaimLimitation
	default:
		return domain.ClaimUnknown
	}
}
