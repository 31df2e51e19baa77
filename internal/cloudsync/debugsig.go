package cloudsync

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DebugSig computes a short, stable signature for a value, suitable for
// compact log lines that need to correlate entries across log statements
// without printing full oids or hashes. This is cloudsync/sync.py's
// debug_sig helper (spec.md SUPPLEMENTED FEATURES #3), reimplemented with
// sha256 in place of the original's md5 — no integrity claim is made either
// way (spec.md's Non-goals explicitly exclude cryptographic integrity),
// this just avoids reaching for a broken hash when an unbroken one is just
// as cheap for a debug label.
func DebugSig(v interface{}) string {
	if v == nil {
		return "0"
	}
	s := fmt.Sprintf("%v", v)
	if s == "" {
		return "0"
	}
	sum := sha256.Sum256([]byte(s))
	enc := base64.RawURLEncoding.EncodeToString(sum[:])
	if len(enc) > 3 {
		enc = enc[:3]
	}
	return enc
}
