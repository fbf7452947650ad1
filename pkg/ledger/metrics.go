package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aucty_ledger_submissions_total",
		Help: "Transactions submitted to the ledger, by outcome.",
	}, []string{"result"})

	confirmationTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aucty_ledger_confirmation_seconds",
		Help:    "Time from submission until a transaction is confirmed.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)

func observeSubmission(err error) {
	switch {
	case err == nil:
		submissions.WithLabelValues("confirmed").Inc()
	case isRejection(err):
		submissions.WithLabelValues("rejected").Inc()
	case isTimeout(err):
		submissions.WithLabelValues("timeout").Inc()
	default:
		submissions.WithLabelValues("error").Inc()
	}
}
