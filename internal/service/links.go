package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

// EncodeUID renders an account id the way it appears in emailed links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// fingerprint changes whenever the password, activation state or last login
// changes, which retires every link issued before.
func fingerprint(a *models.Account) string {
	var last int64
	if a.LastLogin != nil {
		last = a.LastLogin.Unix()
	}
	h := sha256.New()
	h.Write([]byte(a.PasswordHash))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatBool(a.IsActive)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(last, 10)))
	return hex.EncodeToString(h.Sum(nil))
}

// usernameFromEmail is the local part of email, cut to fit the username column.
func usernameFromEmail(email string) string {
	name := strings.SplitN(email, "@", 2)[0]
	if r := []rune(name); len(r) > models.UsernameMaxLen {
		name = string(r[:models.UsernameMaxLen])
	}
	return name
}
