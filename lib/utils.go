package lib

import (
	"math/rand"
	"strings"
)

// DefaultRandomStringsCharset Default charset used for random string generation
const DefaultRandomStringsCharset = "abcdedfghijklmnopqrstABCDEFGHIJKLMNOP"

// GenerateRandomString returns a random string of the defined length using the global source
func GenerateRandomString(length int) string {
	return GenerateRandomStringFrom(nil, length)
}

// GenerateRandomStringFrom returns a random string of the defined length drawn from rnd.
// A nil rnd falls back to the global source.
func GenerateRandomStringFrom(rnd *rand.Rand, length int) string {
	var output strings.Builder
	charSet := DefaultRandomStringsCharset
	for i := 0; i < length; i++ {
		var random int
		if rnd != nil {
			random = rnd.Intn(len(charSet))
		} else {
			random = rand.Intn(len(charSet))
		}
		output.WriteByte(charSet[random])
	}
	return output.String()
}

// GetUniqueItems takes a slice of strings and returns a new slice with unique items, keeping the first occurrence order.
func GetUniqueItems(items []string) []string {
	seen := make(map[string]bool, len(items))
	uniqueItems := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		uniqueItems = append(uniqueItems, item)
	}
	return uniqueItems
}
