// Package signing issues and verifies HMAC-signed, time-limited links to
// stored media objects (lecture videos, solution PDFs, problem figures).
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Signer struct {
	Secret []byte
}

// Signed binds a storage path to a user and an expiry instant.
type Signed struct {
	Path string
	Exp  int64
	UID  string
	Sig  string
}

func New(secret string) *Signer {
	return &Signer{Secret: []byte(secret)}
}

func (s *Signer) Sign(path, userID string, exp time.Time) Signed {
	sig := s.signValue(path, userID, exp.Unix())
	return Signed{Path: path, Exp: exp.Unix(), UID: userID, Sig: sig}
}

func (s *Signer) Verify(path, userID string, exp int64, sig string) bool {
	if time.Now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.signValue(path, userID, exp)))
}

func (s *Signer) signValue(path, userID string, exp int64) string {
	mac := hmac.New(sha256.New, s.Secret)
	mac.Write([]byte(path))
	mac.Write([]byte("|"))
	mac.Write([]byte(userID))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BuildSignedURL appends the signed path and its proof to the media base URL.
func BuildSignedURL(base string, signed Signed) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(signed.Path, "/")
	q := u.Query()
	q.Set("exp", strconv.FormatInt(signed.Exp, 10))
	q.Set("uid", signed.UID)
	q.Set("sig", signed.Sig)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExtractSigned reads the proof parameters back out of a request query.
// The object path itself travels in the URL path, not the query.
func ExtractSigned(path string, query url.Values) (Signed, error) {
	uid := strings.TrimSpace(query.Get("uid"))
	expStr := strings.TrimSpace(query.Get("exp"))
	sig := strings.TrimSpace(query.Get("sig"))
	if path == "" || uid == "" || expStr == "" || sig == "" {
		return Signed{}, fmt.Errorf("missing signed params")
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return Signed{}, err
	}
	return Signed{Path: path, Exp: exp, UID: uid, Sig: sig}, nil
}
