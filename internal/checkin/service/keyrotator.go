package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// CodeSource produces the value of a new rotating key.
type CodeSource interface {
	NextCode(at time.Time) (string, error)
}

// CodeSourceFunc adapts a function to a CodeSource.
type CodeSourceFunc func(at time.Time) (string, error)

func (f CodeSourceFunc) NextCode(at time.Time) (string, error) { return f(at) }

// RandomSource draws a uniformly random code in [0000, 9999].
type RandomSource struct{}

func (RandomSource) NextCode(time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.KeyDigits, n.Int64()), nil
}

// TOTPSource derives codes from a per-process TOTP secret, so consecutive
// keys follow the RFC 6238 sequence for the rotation period.
type TOTPSource struct {
	Secret string
	Period time.Duration
}

// NewTOTPSource returns a TOTPSource with a fresh random secret.
func NewTOTPSource(period time.Duration) (*TOTPSource, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate totp secret: %w", err)
	}
	return &TOTPSource{
		Secret: base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw),
		Period: period,
	}, nil
}

func (s *TOTPSource) NextCode(at time.Time) (string, error) {
	period := uint(s.Period / time.Second)
	if period == 0 {
		period = uint(domain.DefaultKeyRotationInterval / time.Second)
	}
	return totp.GenerateCodeCustom(s.Secret, at, totp.ValidateOpts{
		Period:    period,
		Digits:    otp.Digits(domain.KeyDigits),
		Algorithm: otp.AlgorithmSHA1,
	})
}

// KeyRotator owns the single live rotating key. It replaces the key every
// Interval and accepts a candidate only while it matches the live value and
// is no older than Validity.
type KeyRotator struct {
	Interval time.Duration
	Validity time.Duration
	Source   CodeSource
	Logger   *slog.Logger
	Metrics  *Metrics
	Now      func() time.Time

	mu   sync.RWMutex
	key  domain.RotatingKey
	subs map[chan domain.RotatingKey]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewKeyRotator creates a rotator and issues its first key immediately.
// Zero durations fall back to the 60 second defaults.
func NewKeyRotator(source CodeSource, interval, validity time.Duration, logger *slog.Logger) (*KeyRotator, error) {
	if interval <= 0 {
		interval = domain.DefaultKeyRotationInterval
	}
	if validity <= 0 {
		validity = domain.DefaultKeyValidity
	}
	if source == nil {
		source = RandomSource{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	k := &KeyRotator{
		Interval: interval,
		Validity: validity,
		Source:   source,
		Logger:   logger,
		Now:      time.Now,
		subs:     make(map[chan domain.RotatingKey]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	if _, err := k.Rotate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KeyRotator) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}

// Current returns the live key.
func (k *KeyRotator) Current() domain.RotatingKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key
}

// IsValid reports whether candidate equals the live key and the key is
// still within its validity window.
func (k *KeyRotator) IsValid(candidate string) bool {
	key := k.Current()
	if key.Value == "" || len(candidate) != len(key.Value) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(key.Value)) != 1 {
		return false
	}
	return k.now().Sub(key.IssuedAt) <= k.Validity
}

// Rotate replaces the live key and notifies subscribers.
func (k *KeyRotator) Rotate() (domain.RotatingKey, error) {
	now := k.now()
	value, err := k.Source.NextCode(now)
	if err != nil {
		return domain.RotatingKey{}, fmt.Errorf("generate rotating key: %w", err)
	}
	if !domain.IsWellFormed(value) {
		return domain.RotatingKey{}, fmt.Errorf("generate rotating key: malformed code %q", value)
	}

	key := domain.RotatingKey{Value: value, IssuedAt: now, Validity: k.Validity}

	k.mu.Lock()
	k.key = key
	for ch := range k.subs {
		// Drop the update for subscribers that have not drained the previous one.
		select {
		case ch <- key:
		default:
		}
	}
	k.mu.Unlock()

	k.Metrics.keyRotated()
	k.Logger.Debug("rotating key issued", "issued_at", key.IssuedAt, "expires_at", key.ExpiresAt())
	return key, nil
}

// Subscribe registers for new keys. The returned cancel function must be
// called to release the subscription.
func (k *KeyRotator) Subscribe() (<-chan domain.RotatingKey, func()) {
	ch := make(chan domain.RotatingKey, 1)

	k.mu.Lock()
	k.subs[ch] = struct{}{}
	k.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			k.mu.Lock()
			delete(k.subs, ch)
			k.mu.Unlock()
		})
	}
}

// Start begins rotating the key every Interval. Call Stop to end it.
func (k *KeyRotator) Start() {
	go k.run()
	k.Logger.Info("key rotator started", "interval", k.Interval, "validity", k.Validity)
}

// Stop ends the rotation loop and waits for it to exit.
func (k *KeyRotator) Stop() {
	close(k.stopCh)
	<-k.doneCh
	k.Logger.Info("key rotator stopped")
}

func (k *KeyRotator) run() {
	defer close(k.doneCh)

	ticker := time.NewTicker(k.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := k.Rotate(); err != nil {
				k.Logger.Error("key rotation failed", "error", err)
			}
		case <-k.stopCh:
			return
		}
	}
}
