package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// expiryMargin is how close to expiry a token may get before it is renewed.
const expiryMargin = 60 * time.Second

var (
	// ErrAuthFailure is returned when the provider rejects the login or code exchange.
	ErrAuthFailure = errors.New("authorization failed")
	// ErrMalformedEnvToken is returned when the token environment variable
	// does not hold a token record.
	ErrMalformedEnvToken = errors.New("malformed token in environment")
)

// TokenRecord is the persisted access-token bundle. ExpireTime is a Unix
// timestamp in seconds.
type TokenRecord struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int64  `json:"expires_in"`
	Scope              string `json:"scope"`
	ExpireTime         int64  `json:"expire_time"`
	ReadableExpireTime string `json:"readable_expire_time"`
}

// Expired reports whether fewer than 60 seconds of validity remain.
func (r *TokenRecord) Expired(now time.Time) bool {
	return time.Duration(r.ExpireTime-now.Unix())*time.Second < expiryMargin
}

// ParseTokenRecord decodes the JSON form of a record, as stored in the cache
// file or in an environment variable.
func ParseTokenRecord(raw string) (*TokenRecord, error) {
	var rec TokenRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	if rec.AccessToken == "" {
		return nil, fmt.Errorf("record has no access_token")
	}
	return &rec, nil
}

func recordFromToken(tok *oauth2.Token, now time.Time) *TokenRecord {
	expiresIn, ok := extraSeconds(tok.Extra("expires_in"))
	if !ok && !tok.Expiry.IsZero() {
		expiresIn = int64(math.Round(time.Until(tok.Expiry).Seconds()))
	}
	scope, _ := tok.Extra("scope").(string)
	expire := now.Add(time.Duration(expiresIn) * time.Second)
	return &TokenRecord{
		AccessToken:        tok.AccessToken,
		TokenType:          tok.TokenType,
		ExpiresIn:          expiresIn,
		Scope:              scope,
		ExpireTime:         expire.Unix(),
		ReadableExpireTime: expire.Local().Format("Mon Jan _2 15:04:05 2006"),
	}
}

// extraSeconds reads expires_in as sent by the provider: a JSON number, or a
// number or string from a form-encoded reply.
func extraSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
