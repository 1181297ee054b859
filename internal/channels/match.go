package channels

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultPrefixLength is the width of the channel tag at the start of each
// filename ("C1", "C2", ...).
const DefaultPrefixLength = 2

var (
	// ErrNoChannels is returned when Match is given no channels.
	ErrNoChannels = errors.New("no channels to match")

	// ErrDuplicateChannel is returned when two channels share a name.
	ErrDuplicateChannel = errors.New("duplicate channel name")
)

// Channel is one channel's file collection. The first channel passed to
// Match is the reference channel.
type Channel struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// Group is a set of files, at most one per channel, sharing an identifier.
// Channels and Files are parallel and follow the channel order given to
// Match; channels without a file are absent.
type Group struct {
	Identifier string   `json:"identifier"`
	Channels   []string `json:"channels"`
	Files      []string `json:"files"`
}

// File returns the group's file for the named channel.
func (g Group) File(channel string) (string, bool) {
	for i, name := range g.Channels {
		if name == channel {
			return g.Files[i], true
		}
	}
	return "", false
}

// MatchResult holds the groups found by Match.
type MatchResult struct {
	// Complete has one group per identifier found in every channel.
	Complete []Group `json:"complete"`

	// Partial has one group per identifier missing from at least one
	// non-reference channel.
	Partial []Group `json:"partial"`

	// Orphans lists non-reference files whose identifier has no reference
	// file, sorted.
	Orphans []string `json:"orphans,omitempty"`

	// Warnings describes ignored input, such as filenames no longer than the
	// channel prefix.
	Warnings []string `json:"warnings,omitempty"`
}

// DuplicateIdentifierError reports an identifier shared by more than one
// file within a single channel.
type DuplicateIdentifierError struct {
	Channel    string
	Identifier string
	Files      []string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("channel %s: identifier %q matches %d files: %s",
		e.Channel, e.Identifier, len(e.Files), strings.Join(e.Files, ", "))
}

// TooManyMatchesError reports an identifier matching more files in total than
// there are channels. It wraps the per-channel duplicates that caused it.
type TooManyMatchesError struct {
	Identifier string
	Matches    int
	Channels   int
	Duplicates []*DuplicateIdentifierError
}

func (e *TooManyMatchesError) Error() string {
	msg := fmt.Sprintf("identifier %q matches %d files across %d channels", e.Identifier, e.Matches, e.Channels)
	if len(e.Duplicates) == 0 {
		return msg
	}
	dups := make([]string, len(e.Duplicates))
	for i, d := range e.Duplicates {
		dups[i] = d.Error()
	}
	return msg + ": " + strings.Join(dups, "; ")
}

func (e *TooManyMatchesError) Unwrap() []error {
	errs := make([]error, len(e.Duplicates))
	for i, d := range e.Duplicates {
		errs[i] = d
	}
	return errs
}

// Identifier returns the part of name shared across channels: name without
// its prefixLen-byte channel tag and without any separator ('_', '-', '.' or
// space) directly after the tag. Names no longer than the prefix have no
// identifier and yield "".
func Identifier(name string, prefixLen int) string {
	if prefixLen < 0 || len(name) <= prefixLen {
		return ""
	}
	return strings.TrimLeft(name[prefixLen:], "_-. ")
}

// Match groups files of different channels by identifier.
//
// Reference filenames are visited in lexicographic order. For each reference
// identifier every other channel is searched for a file with the same
// identifier: exactly one per channel gives a complete group, none in some
// channel gives a partial group holding the files that were found.
//
// An identifier shared by several files of one channel (reference included)
// is a data-consistency error: it produces a *DuplicateIdentifierError, or a
// *TooManyMatchesError wrapping them when the identifier's files outnumber
// the channels. Such identifiers are left out of both lists and matching
// continues; the returned error joins every per-identifier error, so a
// non-nil error comes with a usable result.
//
// The input collections are never modified.
func Match(channels []Channel, prefixLen int) (*MatchResult, error) {
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	if prefixLen < 0 {
		return nil, fmt.Errorf("prefix length %d is negative", prefixLen)
	}

	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if seen[ch.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChannel, ch.Name)
		}
		seen[ch.Name] = true
	}

	result := &MatchResult{
		Complete: make([]Group, 0),
		Partial:  make([]Group, 0),
	}

	indexes := make([]map[string][]string, len(channels))
	for c, ch := range channels {
		indexes[c] = indexByIdentifier(ch, prefixLen, result)
	}

	reference := sortedCopy(channels[0].Files)
	done := make(map[string]bool, len(reference))
	var errs []error

	for _, name := range reference {
		id := Identifier(name, prefixLen)
		if id == "" || done[id] {
			continue
		}
		done[id] = true

		group := Group{Identifier: id}
		var dups []*DuplicateIdentifierError
		total := 0
		for c, ch := range channels {
			matches := indexes[c][id]
			total += len(matches)
			switch len(matches) {
			case 0:
			case 1:
				group.Channels = append(group.Channels, ch.Name)
				group.Files = append(group.Files, matches[0])
			default:
				dups = append(dups, &DuplicateIdentifierError{Channel: ch.Name, Identifier: id, Files: matches})
			}
		}

		switch {
		case total > len(channels):
			errs = append(errs, &TooManyMatchesError{Identifier: id, Matches: total, Channels: len(channels), Duplicates: dups})
		case len(dups) > 0:
			for _, d := range dups {
				errs = append(errs, d)
			}
		case len(group.Files) == len(channels):
			result.Complete = append(result.Complete, group)
		default:
			result.Partial = append(result.Partial, group)
		}
	}

	for c := 1; c < len(channels); c++ {
		for id, files := range indexes[c] {
			if !done[id] {
				result.Orphans = append(result.Orphans, files...)
			}
		}
	}
	sort.Strings(result.Orphans)

	return result, errors.Join(errs...)
}

// indexByIdentifier maps identifiers to the channel's files carrying them,
// each list sorted. Files without an identifier are noted as warnings.
func indexByIdentifier(ch Channel, prefixLen int, result *MatchResult) map[string][]string {
	index := make(map[string][]string, len(ch.Files))
	for _, name := range sortedCopy(ch.Files) {
		id := Identifier(name, prefixLen)
		if id == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("channel %s: %q has no identifier after the %d-character prefix", ch.Name, name, prefixLen))
			continue
		}
		index[id] = append(index[id], name)
	}
	return index
}

func sortedCopy(files []string) []string {
	out := make([]string, len(files))
	copy(out, files)
	sort.Strings(out)
	return out
}
