// Package license implements the activation-token scheme that gates premium
// behavior. A credential is a short-lived, single-use string of four
// uppercase-alphanumeric groups: the second group encodes a coarse issuance
// timestamp and the fourth is a checksum of the first three plus a secret
// salt. Validation is stateless except for the replay-prevention store.
//
// The checksum is a 16-bit rolling hash, adequate for tokens that expire
// within minutes and can be used once, and deliberately not tamper-proof:
// whoever holds the salt can mint tokens.
package license

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ValidityWindowMinutes is how long after issuance a credential validates.
const ValidityWindowMinutes = 5

// timestampMod bounds the minutes-since-epoch value to what four hex
// characters can carry. Issuer and validator truncate identically, so the
// window check round-trips; the scheme simply cannot distinguish tokens
// issued exactly 2^16 minutes (~45 days) apart, which the 5-minute window
// makes irrelevant.
const timestampMod = 1 << 16

var credentialShape = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// Validator checks credentials against a salt, the time window, and a replay
// store. The zero value is not usable; construct with NewValidator. Validate
// is safe for concurrent use: the mutex ensures two callers cannot both judge
// the same credential unused.
type Validator struct {
	salt  string
	store ReplayStore
	now   func() time.Time

	mu sync.Mutex
}

// NewValidator builds a Validator over the given salt and replay store.
func NewValidator(salt string, store ReplayStore) *Validator {
	return &Validator{salt: salt, store: store, now: time.Now}
}

// Validate reports whether credential is well-formed, checksum-correct,
// inside its validity window, and previously unseen. The checks run in that
// order and any failure short-circuits before the replay store is touched;
// on success the credential is recorded so it can never validate again.
func (v *Validator) Validate(credential string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !credentialShape.MatchString(credential) {
		return false
	}
	groups := strings.Split(credential, "-")
	prefix := groups[0] + "-" + groups[1] + "-" + groups[2]
	if Checksum(prefix, v.salt) != groups[3] {
		return false
	}

	issued, err := strconv.ParseInt(groups[1], 16, 64)
	if err != nil {
		return false
	}
	current := v.now().Unix() / 60 % timestampMod
	diff := current - issued
	if diff < 0 || diff > ValidityWindowMinutes {
		return false
	}

	if v.store.Seen(credential) {
		return false
	}
	if err := v.store.Add(credential); err != nil {
		// Fail closed: without a durable replay record the credential cannot
		// be accepted.
		return false
	}
	return true
}

// Checksum computes the fourth credential group for "AAAA-BBBB-CCCC" and a
// salt: a rolling hash over the prefix plus salt with 32-bit wraparound,
// rendered as uppercase hex, zero-padded and truncated to four characters.
func Checksum(prefix, salt string) string {
	var hash int32
	for _, c := range prefix + salt {
		hash = hash*31 + int32(c)
	}
	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	hex := strings.ToUpper(strconv.FormatInt(abs, 16))
	for len(hex) < 4 {
		hex = "0" + hex
	}
	return hex[:4]
}

const groupCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate mints a fresh credential for the given issuance time and salt.
// Groups one and three are random; group two encodes the issuance minute.
func Generate(now time.Time, salt string) string {
	minutes := now.Unix() / 60 % timestampMod
	prefix := fmt.Sprintf("%s-%04X-%s", randomGroup(), minutes, randomGroup())
	return prefix + "-" + Checksum(prefix, salt)
}

func randomGroup() string {
	var b [4]byte
	for i := range b {
		b[i] = groupCharset[rand.Intn(len(groupCharset))]
	}
	return string(b[:])
}
