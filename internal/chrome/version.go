package chrome

import (
	"strconv"
	"strings"
)

// majorVersion extracts the major version from a product string such as
// "HeadlessChrome/120.0.6099.109" or "Chrome/120.0.6099.109".
func majorVersion(product string) (int, bool) {
	_, ver, ok := strings.Cut(product, "/")
	if !ok {
		return 0, false
	}
	major, _, _ := strings.Cut(ver, ".")
	n, err := strconv.Atoi(major)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
