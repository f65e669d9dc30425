package constants

import "fmt"

// Redis keys for the registration service
// Pattern: eventreg:{module}:{purpose}:{identifier?}

const (
	KeyPrefix = "eventreg"

	// RegistrationLockKey guards the dedupe, capacity check and insert in serialized mode
	RegistrationLockKey = KeyPrefix + ":lock:registration"
)

// RateLimitKey is the sliding-window set for one client and limit class
func RateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", KeyPrefix, clientIP, limitType)
}

// KnownUserKey marks an email as present in the pre-existing users directory
func KnownUserKey(email string) string {
	return fmt.Sprintf("%s:users:known:%s", KeyPrefix, email)
}

// KnownUserPattern matches every KnownUserKey
func KnownUserPattern() string {
	return KnownUserKey("*")
}
