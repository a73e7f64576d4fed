/*
Package resilience guards outbound calls with circuit breakers.

The fetch capability keeps one breaker per remote host, so a guest
hammering a dead endpoint fails fast instead of burning its whole
deadline on connection attempts.

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

# Usage

	group := resilience.NewGroup(resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	err := group.Get(u.Host).Do(func() error {
		return send(ctx, u)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// host is considered down
	}

Cancellations of the caller's own context are not counted as failures.
*/
package resilience
