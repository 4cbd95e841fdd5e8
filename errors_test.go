package htmlpdf

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindCode(t *testing.T) {
	tests := []struct {
		kind Kind
		code string
	}{
		{KindBusy, "BUSY"},
		{KindUnsupportedPlatform, "UNSUPPORTED_PLATFORM"},
		{KindNavigation, "NAVIGATION_ERROR"},
		{KindSurfaceLost, "WEBVIEW_ERROR"},
		{KindCapture, "WEBVIEW_ERROR"},
		{KindNoHost, "NO_VIEW_CONTROLLER"},
		{KindIO, "IO_ERROR"},
		{KindTimeout, "TIMEOUT"},
		{KindClosed, "CLOSED"},
		{KindUnknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code())
		})
	}
}

func TestErrorIs(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("wrapped: %w", newError(KindIO, cause, "writing output"))

	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrBusy)
	assert.Equal(t, "IO_ERROR", CodeOf(err))
	assert.Empty(t, CodeOf(cause))
	assert.Empty(t, CodeOf(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "htmlpdf: BUSY", ErrBusy.Error())
	assert.Equal(t, "htmlpdf: NAVIGATION_ERROR: loading document: net::ERR_FAILED",
		newError(KindNavigation, errors.New("net::ERR_FAILED"), "loading document").Error())
}
