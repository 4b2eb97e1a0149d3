package postgres

// DBObserver times a logical DB operation. observability.Prom implements it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

func observerOrNoop(obs DBObserver) DBObserver {
	if obs == nil {
		return noopObserver{}
	}
	return obs
}
