package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat   = errors.New("invalid token format")
	ErrTokenSig      = errors.New("invalid token signature")
	ErrTokenExp      = errors.New("token expired")
	ErrTokenProducer = errors.New("producer mismatch")
)

// GenerateProducerToken signs a producer name and expiry.
// Format: base64url(producer + "." + exp_unix + "." + hex(hmac_sha256(secret, producer+"."+exp)))
func GenerateProducerToken(secret, producer string, expUnix int64) (string, error) {
	if secret == "" {
		return "", errors.New("empty token secret")
	}
	if producer == "" || strings.Contains(producer, ".") {
		return "", ErrTokenFormat
	}
	msg := producer + "." + strconv.FormatInt(expUnix, 10)
	raw := msg + "." + hex.EncodeToString(sign(secret, msg))
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// ValidateProducerToken checks signature and expiry and returns the
// embedded producer name. An empty expectProducer accepts any producer.
func ValidateProducerToken(secret, token, expectProducer string, now time.Time, skewSeconds int) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 3 {
		return "", ErrTokenFormat
	}
	producer, expStr, sigHex := parts[0], parts[1], parts[2]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", ErrTokenFormat
	}
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", ErrTokenFormat
	}
	if !hmac.Equal(sign(secret, producer+"."+expStr), got) {
		return "", ErrTokenSig
	}
	if expectProducer != "" && producer != expectProducer {
		return "", ErrTokenProducer
	}
	if now.Unix() > exp+int64(skewSeconds) {
		return "", ErrTokenExp
	}
	return producer, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return tok, tok != ""
}

func sign(secret, msg string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
