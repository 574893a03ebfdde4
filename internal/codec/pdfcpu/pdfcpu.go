// Package pdfcpu adapts the pdfcpu toolkit to the app.Codec port. It opens a
// document with the candidate password supplied as both user and owner
// password and re-serializes it without encryption.
package pdfcpu

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

var _ app.Codec = (*Codec)(nil)

// Codec is stateless and safe for concurrent use; pdfcpu configurations are
// built per call.
type Codec struct{}

// New returns a pdfcpu-backed codec.
func New() *Codec { return &Codec{} }

// Unlock decrypts data with password and returns the re-serialized document.
// Password rejections map to domain.ErrWrongPassword; every other codec
// failure wraps domain.ErrCorrupted with pdfcpu's message preserved for
// diagnostics. An input that is not encrypted at all is passed through
// unchanged, matching how a permissive reader treats it.
func (c *Codec) Unlock(ctx context.Context, data []byte, password string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	var out bytes.Buffer
	err := api.Decrypt(bytes.NewReader(data), &out, conf)
	if err == nil {
		return out.Bytes(), nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not encrypted"):
		return data, nil
	case strings.Contains(msg, "password"):
		return nil, domain.ErrWrongPassword
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrCorrupted, err)
	}
}
