package handlers

import (
	"encoding/base32"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// minSecretChars is 80 bits of base32; enrolment secrets are 160 bits.
const minSecretChars = 16

var registerValidatorsOnce sync.Once

// registerValidators adds the custom binding rules used by the request DTOs
// to gin's validator engine.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("username", validateUsername)
		_ = v.RegisterValidation("base32secret", validateBase32Secret)
	})
}

func validateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

func validateBase32Secret(fl validator.FieldLevel) bool {
	secret := strings.ToUpper(strings.TrimRight(fl.Field().String(), "="))
	if len(secret) < minSecretChars {
		return false
	}
	_, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	return err == nil
}
