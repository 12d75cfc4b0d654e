package utils

import "github.com/google/uuid"

// GenerateID returns a prefixed random identifier such as "bid_<uuid>".
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "_" + uuid.NewString()
}
