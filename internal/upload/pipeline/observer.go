package pipeline

import (
	"time"

	"mediaup/internal/upload/domain"
)

type multiObserver []Observer

// Multi fans events out to every non-nil observer.
func Multi(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return nil
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multiObserver) StageFinished(stage domain.Stage, duration time.Duration, err error) {
	for _, o := range m {
		o.StageFinished(stage, duration, err)
	}
}

func (m multiObserver) ItemFinished(req Request, item domain.Item, outcome domain.ItemOutcome) {
	for _, o := range m {
		o.ItemFinished(req, item, outcome)
	}
}
