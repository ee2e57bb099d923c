package domain

import "strings"

// pairKeySep joins the two participant ids of a chat key. User ids must
// never contain it.
const pairKeySep = "_"

// PairKey returns the canonical id of the conversation between two users:
// the lexicographically smaller id first, joined with an underscore. Both
// argument orders yield the same key.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + pairKeySep + b
}

// SplitPairKey returns the two participant ids encoded in a chat id, sorted.
func SplitPairKey(key string) (string, string, error) {
	low, high, ok := strings.Cut(key, pairKeySep)
	if !ok || low == "" || high == "" {
		return "", "", ErrNotFound
	}
	return low, high, nil
}

// ValidateUserID rejects ids that cannot participate in pair keys: empty
// strings, whitespace, and ids containing the key separator.
func ValidateUserID(id string) error {
	if id == "" || strings.ContainsAny(id, pairKeySep+" \t\r\n") {
		return ErrInvalidParticipant
	}
	return nil
}
