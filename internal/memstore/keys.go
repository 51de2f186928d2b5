package memstore

import "strings"

// UserKeyPrefix marks keys the model may freely read and write
// through the memory tools.
const UserKeyPrefix = "u_"

// protectedKeys are system entries in the memory namespace that the
// model must never read or modify through tools. Runtime code accesses
// them directly through the store.
var protectedKeys = map[string]bool{
	"api_key":        true,
	"bridge_token":   true,
	"bridge_chat_id": true,
	"wifi_ssid":      true,
	"wifi_pass":      true,
	"email_key":      true,
}

// IsUserKey reports whether the model-facing tools may touch this key.
func IsUserKey(key string) bool {
	return strings.HasPrefix(key, UserKeyPrefix)
}

// IsProtectedKey reports whether the key is a sensitive system entry.
func IsProtectedKey(key string) bool {
	return protectedKeys[key]
}

// ToolAccessible reports whether the memory tools may expose this key
// to the model: user-prefixed and not protected.
func ToolAccessible(key string) bool {
	return IsUserKey(key) && !IsProtectedKey(key)
}
