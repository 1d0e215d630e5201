package routing

import "strings"

// Lexicon is a versioned, ordered keyword table. A query matches when
// any pattern appears as a case-insensitive substring. Keeping the
// tables as data makes routing rules testable in isolation.
type Lexicon struct {
	Name     string
	Version  string
	Patterns []string
}

// Matches reports whether the query hits any pattern.
func (l *Lexicon) Matches(query string) bool {
	q := strings.ToLower(query)
	for _, p := range l.Patterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

// WebRecency routes freshness-sensitive queries to search grounding.
var WebRecency = Lexicon{
	Name:    "web-recency",
	Version: "2",
	Patterns: []string{
		"precio actual", "cotización", "últimas noticias", "hoy", "ahora",
		"precio de", "valor actual", "mercado actual", "tendencia actual",
		"noticias de", "actualización", "estado actual",
		"current price", "latest news", "today", "right now",
		"stock price", "market today", "breaking news", "this week",
	},
}

// DateTime routes pure time questions to the datetime function. It is
// only consulted after WebRecency: grounding and function calling are
// mutually exclusive, and recency intent dominates.
var DateTime = Lexicon{
	Name:    "datetime",
	Version: "2",
	Patterns: []string{
		"qué hora", "que hora", "qué día", "que dia", "fecha actual",
		"día de la semana", "dia de la semana", "hora actual",
		"what time", "what day", "what date", "current date",
		"day of the week", "day is it", "time is it",
	},
}
