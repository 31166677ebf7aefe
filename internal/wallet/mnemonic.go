// Package wallet derives signing keys from recovery phrases and raw keys,
// stores them encrypted on disk, and selects UTXOs to spend.
package wallet

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
const MnemonicEntropyBits = 256

var (
	wordIndexOnce sync.Once
	wordIndex     map[string]struct{}
)

func knownWord(w string) bool {
	wordIndexOnce.Do(func() {
		list := bip39.GetWordList()
		wordIndex = make(map[string]struct{}, len(list))
		for _, word := range list {
			wordIndex[word] = struct{}{}
		}
	})
	_, ok := wordIndex[w]
	return ok
}

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// NormalizeMnemonic collapses whitespace and checks word count, wordlist
// membership and checksum. It returns the normalized phrase.
func NormalizeMnemonic(phrase string) (string, error) {
	words := strings.Fields(phrase)
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return "", fmt.Errorf("%w: got %d words", ErrMnemonicWordCount, len(words))
	}
	for i, w := range words {
		if !knownWord(w) {
			return "", fmt.Errorf("%w: word %d %q", ErrMnemonicUnknownWord, i+1, w)
		}
	}
	normalized := strings.Join(words, " ")
	if _, err := bip39.EntropyFromMnemonic(normalized); err != nil {
		if errors.Is(err, bip39.ErrChecksumIncorrect) {
			return "", ErrMnemonicChecksum
		}
		return "", fmt.Errorf("%w: %v", ErrMnemonicChecksum, err)
	}
	return normalized, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	_, err := NormalizeMnemonic(mnemonic)
	return err == nil
}
