// Package text provides free-text playback intent parsing.
package text

import (
	"strings"
)

const noShufflePhrase = "no shuffle"

// WantsShuffle reports whether playback for the given query should shuffle.
// Shuffle is the default; the literal phrase "no shuffle" anywhere in the
// query (case-insensitive) opts out.
func WantsShuffle(query string) bool {
	return !strings.Contains(strings.ToLower(query), noShufflePhrase)
}

// BuildTrackQuery converts a free-text request into a provider search query.
// "shape of you by ed sheeran" becomes "track:shape of you artist:ed sheeran"
// and "money from the dark side of the moon" becomes
// "track:money album:the dark side of the moon". Queries without either
// marker word pass through unchanged.
func BuildTrackQuery(query string) string {
	if track, artist, ok := splitOnWord(query, "by"); ok {
		return "track:" + track + " artist:" + artist
	}

	if track, album, ok := splitOnWord(query, "from"); ok {
		return "track:" + track + " album:" + album
	}

	return query
}

// splitOnWord splits the query on the first standalone occurrence of the
// marker word, case-insensitively. Both halves must be non-empty for the
// split to count; "stand by me" with nothing after "by" stays whole.
func splitOnWord(query, word string) (before, after string, ok bool) {
	marker := " " + word + " "
	idx := strings.Index(strings.ToLower(query), marker)
	if idx < 0 {
		return "", "", false
	}

	before = strings.TrimSpace(query[:idx])
	after = strings.TrimSpace(query[idx+len(marker):])
	if before == "" || after == "" {
		return "", "", false
	}

	return before, after, true
}
