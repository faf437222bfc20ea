package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

const defaultHashSalt = "finance-ledger-default-salt"

var hashSalt = defaultHashSalt

// InitHashSalt sets the salt mixed into hashed identifiers. An empty salt
// keeps the built-in default.
func InitHashSalt(salt string) {
	if salt == "" {
		Log.Warn().Msg("LOG_HASH_SALT is not set, hashed ids use the default salt")
		hashSalt = defaultHashSalt
		return
	}
	hashSalt = salt
}

func hashID(id int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s", id, hashSalt))
	return hex.EncodeToString(sum[:])[:8]
}

// HashUserID returns a short salted hash of a user ID for log correlation.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID returns a short salted hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

// SanitizeText hides user-provided text such as transaction notes, keeping
// only a short prefix and the length.
func SanitizeText(text string) string {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return "<empty>"
	case n <= 10:
		return fmt.Sprintf("<%d chars>", n)
	}
	return fmt.Sprintf("%s...<%d chars>", string([]rune(text)[:3]), n)
}
