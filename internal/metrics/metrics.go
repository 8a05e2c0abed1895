package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the registry counters exposed on /metrics.
type Metrics struct {
	DocumentsCreated      *prometheus.CounterVec
	DocumentsDeleted      *prometheus.CounterVec
	DistributionsCreated  prometheus.Counter
	DuplicateSendsSkipped prometheus.Counter
	FilesUploaded         prometheus.Counter
	SignIns               prometheus.Counter
}

// New registers the counters with the given registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		DocumentsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "documents_created_total",
			Help:      "Documents registered, by variant.",
		}, []string{"kind"}),
		DocumentsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "documents_deleted_total",
			Help:      "Documents removed, by variant.",
		}, []string{"kind"}),
		DistributionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "distributions_created_total",
			Help:      "Document-to-room sends recorded.",
		}),
		DuplicateSendsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "duplicate_sends_skipped_total",
			Help:      "Send requests skipped because the pair already existed.",
		}),
		FilesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "files_uploaded_total",
			Help:      "Attachment files stored.",
		}),
		SignIns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "registry",
			Name:      "sign_ins_total",
			Help:      "Successful sign-ins.",
		}),
	}
}
