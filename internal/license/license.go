package license

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix marks every key this service hands out.
const Prefix = "CAFE"

type Kind string

const (
	KindGrouped   Kind = "grouped"
	KindUUID      Kind = "uuid"
	KindTimestamp Kind = "timestamp"
)

var (
	groupedRe   = regexp.MustCompile(`^` + Prefix + `(-[0-9A-F]{4}){4}$`)
	uuidRe      = regexp.MustCompile(`^` + Prefix + `-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	timestampRe = regexp.MustCompile(`^` + Prefix + `-[0-9a-f]{8,16}-[0-9a-f]{8}$`)
)

type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Generate produces a key in one of the accepted shapes. All randomness
// comes from crypto/rand; the key is the only gate for admin bootstrap.
func Generate(kind Kind) (string, error) {
	switch kind {
	case KindGrouped:
		b := make([]byte, 8)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("license: rand failed: %w", err)
		}
		enc := strings.ToUpper(hex.EncodeToString(b))
		return fmt.Sprintf("%s-%s-%s-%s-%s", Prefix, enc[0:4], enc[4:8], enc[8:12], enc[12:16]), nil
	case KindUUID:
		return Prefix + "-" + uuid.NewString(), nil
	case KindTimestamp:
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("license: rand failed: %w", err)
		}
		return fmt.Sprintf("%s-%x-%s", Prefix, time.Now().UnixNano(), hex.EncodeToString(b)), nil
	default:
		return "", fmt.Errorf("license: unknown kind %q", kind)
	}
}

// Validate is a structural check only. Whether the key may still be used
// (no admin exists yet) is the caller's business rule.
func Validate(token string) Result {
	if token == "" {
		return Result{Valid: false, Reason: "empty key"}
	}
	if !strings.HasPrefix(token, Prefix+"-") {
		return Result{Valid: false, Reason: "missing " + Prefix + " prefix"}
	}
	if groupedRe.MatchString(token) || uuidRe.MatchString(token) || timestampRe.MatchString(token) {
		return Result{Valid: true}
	}
	return Result{Valid: false, Reason: "malformed key"}
}
