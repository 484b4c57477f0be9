package utils

import "os"

// GetEnv returns the value of the environment variable key, or fallback
// when it is unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
