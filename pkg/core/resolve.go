package core

import (
	"context"
	"fmt"
	"strings"
)

// FullIDLength is the length of a hex SHA-1 identifier.
const FullIDLength = 40

// IsFullID reports whether id has the shape of a complete identifier.
func IsFullID(id string) bool {
	if len(id) != FullIDLength {
		return false
	}
	for _, c := range id {
		if !isHex(c) {
			return false
		}
	}
	return true
}

func isHex(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}

// MatchIDs returns every live identifier starting with prefix, so that 297aacc stands for
// 297aacc3863171ed86ba89a2ea0e88f9c4d99d48. No match is an empty result, not an error.
// Choosing among several matches is left to the caller.
func (s *Service) MatchIDs(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}
	ids, err := s.store.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	return matchPrefix(ids, prefix), nil
}

func matchPrefix(ids []string, prefix string) []string {
	var out []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// Resolve expands a partial identifier to exactly one full identifier.
// Several matches are handed to the picker when one is configured.
func (s *Service) Resolve(ctx context.Context, prefix string) (string, error) {
	ids, err := s.MatchIDs(ctx, prefix)
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", &NotFoundError{ID: prefix}
	case 1:
		return ids[0], nil
	}

	if s.picker == nil {
		return "", &AmbiguousIDError{Prefix: prefix, Matches: ids}
	}
	id, err := s.picker.Pick(ctx, "multiple match, which one?", ids)
	if err != nil {
		return "", fmt.Errorf("pick id: %w", err)
	}
	for _, candidate := range ids {
		if candidate == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("invalid id %q: %w", id, ErrAborted)
}
