// Package avatar builds placeholder profile-image URIs. The images
// themselves are rendered by an external service; failure there is purely
// cosmetic.
package avatar

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const baseURL = "https://ui-avatars.com/api/"

// For returns a deterministic placeholder URI seeded from the first letter
// of the display name.
func For(displayName string) string {
	seed := "?"
	for _, r := range strings.TrimSpace(displayName) {
		seed = string(unicode.ToUpper(r))
		break
	}
	return fmt.Sprintf("%s?name=%s", baseURL, url.QueryEscape(seed))
}
