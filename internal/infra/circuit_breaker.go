package infra

import (
	"errors"
	"sync"
	"time"
)

// Breaker fails geocoding calls fast while the upstream API is down.
//
//	closed    calls pass; Umbral consecutive failures open it
//	open      calls fail with ErrCircuitOpen until Espera elapses
//	half-open one probe passes; success closes, failure reopens
type Breaker struct {
	umbral int
	espera time.Duration
	now    func() time.Time
	// onChange, when set, is called with the lock held on every transition.
	onChange func(from, to BreakerState)

	mu        sync.Mutex
	state     BreakerState
	fallos    int
	abiertoEn time.Time
	sondeando bool
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	return [...]string{"closed", "open", "half-open"}[s]
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

func NewBreaker(umbral int, espera time.Duration) *Breaker {
	if umbral <= 0 {
		umbral = 5
	}
	if espera <= 0 {
		espera = 30 * time.Second
	}
	return &Breaker{umbral: umbral, espera: espera, now: time.Now}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expirar()
	return b.state
}

func (b *Breaker) set(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if to == BreakerOpen {
		b.abiertoEn = b.now()
	}
	b.fallos = 0
	b.sondeando = false
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

func (b *Breaker) expirar() {
	if b.state == BreakerOpen && b.now().Sub(b.abiertoEn) >= b.espera {
		b.set(BreakerHalfOpen)
	}
}

// Do runs fn unless the breaker rejects it.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	b.expirar()
	if b.state == BreakerOpen || (b.state == BreakerHalfOpen && b.sondeando) {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	if b.state == BreakerHalfOpen {
		b.sondeando = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		if b.state == BreakerHalfOpen {
			b.set(BreakerClosed)
		}
		b.fallos = 0
	case b.state == BreakerHalfOpen:
		b.set(BreakerOpen)
	default:
		b.fallos++
		if b.fallos >= b.umbral {
			b.set(BreakerOpen)
		}
	}
	return err
}
