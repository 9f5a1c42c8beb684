package logger

import (
	"regexp"
	"strings"
)

var secretKeys = []string{"password", "secret", "token", "api_key", "apikey"}

// dsnCredentials matches the user:password@ part of a connection URL.
var dsnCredentials = regexp.MustCompile(`(://[^:/@\s]+):[^@\s]+@`)

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return "***"
		}
	}
	return RedactDSN(val)
}

// RedactDSN masks the password of any connection URL embedded in s.
// "postgres://app:hunter2@db:5432/plans" → "postgres://app:***@db:5432/plans"
func RedactDSN(s string) string {
	return dsnCredentials.ReplaceAllString(s, "$1:***@")
}
