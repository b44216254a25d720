package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Tokens travel in query strings, so the URL-safe alphabet is used.
var encoding = base64.URLEncoding

// EncodeMultiFieldToken creates a token with any number of string fields
// This provides flexibility for different pagination strategies
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return encoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	tokenStr := string(decodedBytes)
	parts := strings.Split(tokenStr, "|")
	return parts, nil
}

// EncodeSequenceToken creates a cursor pointing after the given movement sequence of an
// account. The account ID is embedded so a token cannot be replayed against another
// account.
func EncodeSequenceToken(accountID string, afterSequence int64) string {
	return EncodeMultiFieldToken(accountID, strconv.FormatInt(afterSequence, 10))
}

// DecodeSequenceToken parses a token produced by EncodeSequenceToken.
func DecodeSequenceToken(token string) (string, int64, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return "", 0, err
	}
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, fmt.Errorf("invalid pagination token format (split)")
	}

	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid pagination token format (sequence parse): %w", err)
	}
	if seq < 0 {
		return "", 0, fmt.Errorf("invalid pagination token format (negative sequence)")
	}

	return parts[0], seq, nil
}
