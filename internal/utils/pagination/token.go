package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// EncodeOffsetToken creates a token resuming a listing at offset. The key
// fields bind the token to the listing it was issued for.
func EncodeOffsetToken(offset int, key ...string) string {
	return EncodeMultiFieldToken(append(key, strconv.Itoa(offset))...)
}

// DecodeOffsetToken returns the offset carried by token, rejecting tokens
// issued for a different key.
func DecodeOffsetToken(token string, key ...string) (int, error) {
	fields, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(fields) != len(key)+1 {
		return 0, fmt.Errorf("invalid pagination token format (field count)")
	}
	for i, k := range key {
		if fields[i] != k {
			return 0, fmt.Errorf("pagination token was issued for another listing")
		}
	}

	offset, err := strconv.Atoi(fields[len(key)])
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid pagination token format (offset)")
	}
	return offset, nil
}

// Window returns the page of items starting at offset. A limit of zero or
// less returns everything from offset on. next is the offset of the
// following page, or 0 once the listing is exhausted.
func Window[T any](items []T, offset, limit int) (page []T, next int) {
	if offset >= len(items) {
		return items[len(items):], 0
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
		next = end
	}
	return items[offset:end], next
}
