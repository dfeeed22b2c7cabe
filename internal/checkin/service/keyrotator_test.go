package service

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/stretchr/testify/require"
)

func TestKeyRotatorValidity(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(testEpoch)
	keys := newFixedRotator(t, clock, "0007")

	require.Equal(t, "0007", keys.Current().Value)
	require.Equal(t, testEpoch, keys.Current().IssuedAt)
	require.Equal(t, testEpoch.Add(time.Minute), keys.Current().ExpiresAt())

	require.True(t, keys.IsValid("0007"), "valid when issued")
	require.False(t, keys.IsValid("0008"), "wrong value")
	require.False(t, keys.IsValid("007"), "wrong length")
	require.False(t, keys.IsValid(""), "empty")

	clock.Advance(59 * time.Second)
	require.True(t, keys.IsValid("0007"), "valid at 59s")

	clock.Advance(time.Second)
	require.True(t, keys.IsValid("0007"), "valid at exactly 60s")

	clock.Advance(time.Second)
	require.False(t, keys.IsValid("0007"), "expired at 61s")
}

func TestKeyRotatorRotate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock(testEpoch)
	codes := []string{"1111", "2222", "3333"}
	var calls int
	source := CodeSourceFunc(func(time.Time) (string, error) {
		code := codes[calls%len(codes)]
		calls++
		return code, nil
	})

	keys, err := NewKeyRotator(source, time.Minute, time.Minute, discardLogger())
	require.NoError(t, err)
	keys.Now = clock.Now
	require.Equal(t, "1111", keys.Current().Value)

	feed, cancel := keys.Subscribe()
	defer cancel()

	clock.Advance(time.Minute)
	next, err := keys.Rotate()
	require.NoError(t, err)
	require.Equal(t, "2222", next.Value)
	require.Equal(t, testEpoch.Add(time.Minute), next.IssuedAt)

	require.False(t, keys.IsValid("1111"), "previous key is replaced")
	require.True(t, keys.IsValid("2222"))

	select {
	case got := <-feed:
		require.Equal(t, next, got)
	default:
		t.Fatal("subscriber was not notified")
	}

	cancel()
	_, err = keys.Rotate()
	require.NoError(t, err)
	select {
	case <-feed:
		t.Fatal("cancelled subscriber was notified")
	default:
	}
}

func TestKeyRotatorRejectsBadCodes(t *testing.T) {
	t.Parallel()

	_, err := NewKeyRotator(CodeSourceFunc(func(time.Time) (string, error) {
		return "12345", nil
	}), 0, 0, nil)
	require.Error(t, err)

	boom := errors.New("entropy exhausted")
	_, err = NewKeyRotator(CodeSourceFunc(func(time.Time) (string, error) {
		return "", boom
	}), 0, 0, nil)
	require.ErrorIs(t, err, boom)
}

func TestKeyRotatorDefaults(t *testing.T) {
	t.Parallel()

	keys, err := NewKeyRotator(nil, 0, 0, nil)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultKeyRotationInterval, keys.Interval)
	require.Equal(t, domain.DefaultKeyValidity, keys.Validity)
	require.True(t, domain.IsWellFormed(keys.Current().Value))
}

func TestKeyRotatorStartStop(t *testing.T) {
	t.Parallel()

	keys, err := NewKeyRotator(RandomSource{}, 10*time.Millisecond, time.Minute, discardLogger())
	require.NoError(t, err)

	feed, cancel := keys.Subscribe()
	defer cancel()

	keys.Start()
	select {
	case key := <-feed:
		require.True(t, domain.IsWellFormed(key.Value))
	case <-time.After(2 * time.Second):
		t.Fatal("no rotation observed")
	}
	keys.Stop()
}

func TestCodeSources(t *testing.T) {
	t.Parallel()

	t.Run("random codes are four digits", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code, err := RandomSource{}.NextCode(testEpoch)
			require.NoError(t, err)
			require.True(t, domain.IsWellFormed(code), code)
		}
	})

	t.Run("totp codes are four digits and stable within a period", func(t *testing.T) {
		src, err := NewTOTPSource(time.Minute)
		require.NoError(t, err)

		start := testEpoch.Truncate(time.Minute)
		a, err := src.NextCode(start)
		require.NoError(t, err)
		require.True(t, domain.IsWellFormed(a), a)

		b, err := src.NextCode(start.Add(30 * time.Second))
		require.NoError(t, err)
		require.Equal(t, a, b)
	})
}
