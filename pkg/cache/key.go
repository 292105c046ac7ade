package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Key identifies a cached page. The render flag is part of the identity:
// a scripted render of a page is not interchangeable with the raw fetch.
type Key struct {
	// TargetURL is the page URL as requested by the caller.
	TargetURL string

	// RenderJS is whether client-side scripts were executed.
	RenderJS bool
}

// String generates a deterministic Redis key. Target URLs are hashed so
// arbitrarily long or oddly-delimited URLs stay valid key material.
//
// Format: proxyfetch:page:render=<bool>:<sha256(url)>
func (k Key) String() string {
	sum := sha256.Sum256([]byte(k.TargetURL))
	return fmt.Sprintf("proxyfetch:page:render=%t:%s", k.RenderJS, hex.EncodeToString(sum[:]))
}
