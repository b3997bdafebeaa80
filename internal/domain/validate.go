package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/drschille/CRDT-Server/internal/models"
)

// requiredText trims s and enforces presence and the length bound.
func requiredText(s string, max int, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", models.BadRequest("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", models.BadRequest("%s exceeds %d characters", field, max)
	}
	return s, nil
}

// optionalText trims s and enforces the length bound; empty means absent.
func optionalText(s string, max int, field string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", models.BadRequest("%s exceeds %d characters", field, max)
	}
	return s, nil
}

// validVisibility checks a visibility value, defaulting empty to fallback.
func validVisibility(s, fallback string) (string, error) {
	if s == "" {
		return fallback, nil
	}
	if s != models.VisibilityPublic && s != models.VisibilityPrivate {
		return "", models.BadRequest("invalid visibility %q", s)
	}
	return s, nil
}

// normalizeCollaborators trims, de-duplicates, and drops the owner from a
// collaborator set. Order of first appearance is kept.
func normalizeCollaborators(collaborators []string, ownerID string) ([]string, error) {
	out := make([]string, 0, len(collaborators))
	seen := make(map[string]bool, len(collaborators))
	for _, c := range collaborators {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if utf8.RuneCountInString(c) > 64 {
			return nil, models.BadRequest("collaborator id exceeds 64 characters")
		}
		if c == ownerID || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
