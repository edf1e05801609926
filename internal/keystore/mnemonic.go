package keystore

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

// MaxTypoDistance bounds how far a word may be from a suggestion.
const MaxTypoDistance = 2

//nolint:gochecknoglobals // compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
)

// GenerateMnemonic creates a BIP39 phrase of 12 or 24 words.
func GenerateMnemonic(wordCount int) (string, error) {
	var bits int
	switch wordCount {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"words": fmt.Sprint(wordCount),
		})
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase, strips "1." style numbering and
// commas, and collapses whitespace.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, word list membership and checksum.
// Unknown words produce a suggestion on the returned error.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return walleterr.WithDetails(walleterr.ErrInvalidMnemonic, map[string]string{
			"words": fmt.Sprint(len(words)),
		})
	}

	if typos := DetectTypos(normalized); len(typos) > 0 {
		return walleterr.WithSuggestion(walleterr.ErrInvalidMnemonic, FormatTypos(typos))
	}

	if !bip39.IsMnemonicValid(normalized) {
		return walleterr.WithSuggestion(walleterr.ErrInvalidMnemonic, "checksum mismatch - check the word order")
	}
	return nil
}

// MnemonicToSeed validates the phrase and returns its 64-byte BIP39 seed.
func MnemonicToSeed(mnemonic, passphrase string) ([]byte, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), passphrase)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// Typo is one unknown word and its closest BIP39 match.
type Typo struct {
	Index      int
	Word       string
	Suggestion string
}

// DetectTypos returns the words that are not in the BIP39 list.
func DetectTypos(mnemonic string) []Typo {
	var typos []Typo
	for i, word := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if isWord(word) {
			continue
		}
		typos = append(typos, Typo{Index: i, Word: word, Suggestion: Suggest(word, bip39.GetWordList())})
	}
	return typos
}

// Suggest returns the candidate closest to input by Levenshtein distance,
// or "" when nothing is within MaxTypoDistance.
func Suggest(input string, candidates []string) string {
	best := ""
	bestDist := math.MaxInt
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(input), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
		if d == 0 {
			return c
		}
	}
	if bestDist <= MaxTypoDistance {
		return best
	}
	return ""
}

// FormatTypos renders typos as "word 3: 'abandn' - did you mean 'abandon'?" lines.
func FormatTypos(typos []Typo) string {
	lines := make([]string, 0, len(typos))
	for _, t := range typos {
		if t.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("word %d: '%s' - did you mean '%s'?", t.Index+1, t.Word, t.Suggestion))
			continue
		}
		lines = append(lines, fmt.Sprintf("word %d: '%s' is not a BIP39 word", t.Index+1, t.Word))
	}
	return strings.Join(lines, "\n")
}

func isWord(word string) bool {
	for _, w := range bip39.GetWordList() {
		if w == word {
			return true
		}
	}
	return false
}
