package reliability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsProviderFailureClassifiesTimeoutAndUnavailable(t *testing.T) {
	require.True(t, IsProviderFailure(Wrap(KindProviderUnavailable, "llm.generate", errors.New("boom"))))
	require.True(t, IsProviderFailure(Wrap(KindTimeout, "llm.generate", errors.New("deadline"))))
	require.False(t, IsProviderFailure(Wrap(KindMalformedFrame, "codec.decode", nil)))
	require.False(t, IsProviderFailure(errors.New("unclassified")))
}

func TestErrorUnwraps(t *testing.T) {
	cause := errors.New("dial refused")
	err := Wrap(KindProviderUnavailable, "stt.connect", cause)
	require.ErrorIs(t, err, cause)
}
