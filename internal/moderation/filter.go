// Package moderation masks blocked words in chat bodies.
package moderation

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

var ErrNoWords = errors.New("no blocked words configured")

// Filter masks every occurrence of a blocked word. Matching ignores case,
// punctuation and spacing inside the word and folds common leet substitutions,
// so "B.4.d" matches "bad".
type Filter struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewFilter builds the automaton for words. Blank entries are ignored.
func NewFilter(words []string, mask rune) (*Filter, error) {
	keys := lo.Uniq(lo.FilterMap(words, func(word string, _ int) (string, bool) {
		folded, _ := fold(strings.TrimSpace(word))
		return string(folded), len(folded) > 0
	}))
	if len(keys) == 0 {
		return nil, ErrNoWords
	}
	// The double-array trie under the automaton wants sorted, unique keys.
	sort.Strings(keys)
	patterns := lo.Map(keys, func(key string, _ int) []rune {
		return []rune(key)
	})

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{machine: machine, mask: mask}, nil
}

// Censor returns text with every matched span replaced by the mask rune.
// Characters skipped by folding but lying inside a match are masked too.
func (f *Filter) Censor(text string) string {
	folded, positions := fold(text)
	if len(folded) == 0 {
		return text
	}
	terms := f.machine.MultiPatternSearch(folded, false)
	if len(terms) == 0 {
		return text
	}

	runes := []rune(text)
	for _, term := range terms {
		end := term.Pos + len(term.Word)
		if term.Pos < 0 || end > len(positions) {
			continue
		}
		for i := positions[term.Pos]; i <= positions[end-1]; i++ {
			runes[i] = f.mask
		}
	}
	return string(runes)
}

// fold normalizes text for matching and returns, for each kept rune, its index
// in the original rune slice.
func fold(text string) ([]rune, []int) {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	positions := make([]int, 0, len(runes))
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return out, positions
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}
