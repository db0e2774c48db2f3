// README: Human-facing booking codes: "TL" + yyyymmdd + 2-4 uppercase letters.
package booking

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"time"
)

var codePattern = regexp.MustCompile(`^TL\d{8}[A-Z]{2,4}$`)

const (
	codePrefix  = "TL"
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// codeSuffixLen letters give 26^4 codes per day.
	codeSuffixLen = 4
	codeAttempts  = 5
)

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// NewCode builds a code for the given day. The suffix is random; uniqueness is
// enforced by the repository.
func NewCode(day time.Time) string {
	buf := make([]byte, codeSuffixLen)
	max := big.NewInt(int64(len(codeLetters)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms; fall back to the clock.
			n = big.NewInt(time.Now().UnixNano() % int64(len(codeLetters)))
		}
		buf[i] = codeLetters[n.Int64()]
	}
	return codePrefix + day.Format("20060102") + string(buf)
}
