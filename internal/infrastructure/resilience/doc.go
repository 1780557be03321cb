// Package resilience provides a circuit breaker for remote-store calls.
//
// The breaker has the usual three states. Closed passes requests through
// and counts consecutive failures; once the threshold is reached it opens
// and fails fast with ErrCircuitOpen. After the cooldown a single probe is
// allowed (half-open); success closes the breaker, failure reopens it.
//
//	breaker := resilience.New("remote-store", resilience.Settings{
//		Threshold: 5,
//		Cooldown:  30 * time.Second,
//	})
//	err := breaker.Do(func() error { return client.Call() })
package resilience
