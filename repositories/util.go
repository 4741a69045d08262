// repositories/util.go
package repositories

import "regexp"

// regexQuoteMeta escapes user input before it is embedded in a $regex
// filter (case-insensitive exact or contains matches).
func regexQuoteMeta(value string) string {
	return regexp.QuoteMeta(value)
}
