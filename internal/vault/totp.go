package vault

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrNoTOTP is returned when a record carries no two-factor key
var ErrNoTOTP = errors.New("record has no two-factor key")

var digests = map[string]otp.Algorithm{
	"sha1":   otp.AlgorithmSHA1,
	"sha256": otp.AlgorithmSHA256,
	"sha512": otp.AlgorithmSHA512,
}

// TOTP returns the RFC 6238 code for the record at the given time: 30 second
// period, 6 digits. The two-factor key field is used when present and is
// always HMAC-SHA1. Otherwise the password is read as "[digest:]BASE32",
// spaces ignored, with digest one of sha1, sha256 or sha512.
func (r Record) TOTP(at time.Time) (string, error) {
	secret, algo := "", otp.AlgorithmSHA1
	if len(r.TOTPKey) > 0 {
		secret = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(r.TOTPKey)
	} else {
		var err error
		if secret, algo, err = passwordSecret(r.Password); err != nil {
			return "", err
		}
	}
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: algo,
	})
}

func passwordSecret(password string) (string, otp.Algorithm, error) {
	s := strings.ReplaceAll(password, " ", "")
	algo := otp.AlgorithmSHA1
	if name, rest, ok := strings.Cut(s, ":"); ok {
		a, known := digests[strings.ToLower(name)]
		if !known {
			return "", algo, fmt.Errorf("%w: unsupported digest %q", ErrNoTOTP, name)
		}
		s, algo = rest, a
	}
	s = strings.ToUpper(strings.TrimRight(s, "="))
	if s == "" {
		return "", algo, ErrNoTOTP
	}
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s); err != nil {
		return "", algo, fmt.Errorf("%w: password is not a base32 secret", ErrNoTOTP)
	}
	return s, algo, nil
}
