package bucket_test

import (
	"testing"

	"github.com/encryptogroup/PrivMail/internal/bucket"
	"github.com/encryptogroup/PrivMail/internal/circuiterr"
	"github.com/stretchr/testify/require"
)

func TestMinLen(t *testing.T) {
	s := bucket.Scheme{4, 8, 16}
	ml, err := s.MinLen(4)
	require.NoError(t, err)
	require.Equal(t, 1, ml)

	ml, err = s.MinLen(8)
	require.NoError(t, err)
	require.Equal(t, 5, ml)

	ml, err = s.MinLen(16)
	require.NoError(t, err)
	require.Equal(t, 9, ml)
}

func TestMinLenRejectsUnknownSize(t *testing.T) {
	s := bucket.Scheme{4, 8, 16}
	_, err := s.MinLen(32)
	require.Error(t, err)
	var schemeErr *circuiterr.InvalidBucketScheme
	require.ErrorAs(t, err, &schemeErr)
}

func TestAtLeast(t *testing.T) {
	s := bucket.Scheme{4, 8, 16}
	require.Equal(t, []int{8, 16}, s.AtLeast(8))
	require.Equal(t, []int{4, 8, 16}, s.AtLeast(1))
	require.Nil(t, s.AtLeast(32))
}
