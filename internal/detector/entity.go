package detector

import (
	"fmt"
	"strings"

	"CredibilityScanner/internal/domain"
)

const maxListedMatches = 3

var relevantEntityTypes = map[string]struct{}{
	"ORG":    {},
	"PERSON": {},
	"GPE":    {},
	"LOC":    {},
}

// Entity scores how concrete and recognizable the named entities are.
type Entity struct {
	anchors []string
}

// NewEntity keeps the anchor list as given; matching is case-sensitive.
func NewEntity(lex Lexicon) *Entity {
	anchors := make([]string, 0, len(lex.Anchors))
	for _, a := range lex.Anchors {
		if a != "" {
			anchors = append(anchors, a)
		}
	}
	return &Entity{anchors: anchors}
}

// Analyze verifies the document entities.
func (e *Entity) Analyze(doc domain.NormalizedText) domain.EntityResult {
	return e.Verify(doc.Entities())
}

// Verify applies the policy table:
// no entities 40, no relevant types 50, anchor match 80, otherwise 60.
func (e *Entity) Verify(entities []domain.Entity) domain.EntityResult {
	if len(entities) == 0 {
		return domain.EntityResult{Score: 40, Reason: "No specific entities mentioned (vague)."}
	}

	var relevant []domain.Entity
	for _, ent := range entities {
		if _, ok := relevantEntityTypes[strings.ToUpper(ent.Type)]; ok {
			relevant = append(relevant, ent)
		}
	}
	if len(relevant) == 0 {
		return domain.EntityResult{Score: 50, Reason: "No verifiable people or organizations found."}
	}

	var matches []string
	for _, ent := range relevant {
		if e.isAnchored(ent.Text) {
			matches = append(matches, ent.Text)
		}
	}
	if len(matches) > 0 {
		listed := matches
		if len(listed) > maxListedMatches {
			listed = listed[:maxListedMatches]
		}
		return domain.EntityResult{
			Score:   80,
			Reason:  "References recognized entities: " + strings.Join(listed, ", "),
			Count:   len(relevant),
			Matches: matches,
		}
	}

	return domain.EntityResult{
		Score:  60,
		Reason: fmt.Sprintf("Contains specific entities (%d found), but unverified context.", len(relevant)),
		Count:  len(relevant),
	}
}

func (e *Entity) isAnchored(text string) bool {
	for _, a := range e.anchors {
		if strings.Contains(text, a) {
			return true
		}
	}
	return false
}
