package mediareader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xaionaro-go/mediareader/pkg/mediareader/types"
)

var (
	metricReadResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediareader",
		Name:      "read_results_total",
		Help:      "Amount of resolved stream reads by essence kind and result kind.",
	}, []string{"kind", "result"})

	metricReaderCreations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediareader",
		Name:      "reader_creations_total",
		Help:      "Amount of Reader creation attempts by source type and outcome.",
	}, []string{"source", "outcome"})

	metricReadersOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mediareader",
		Name:      "readers_open",
		Help:      "Amount of Readers created and not closed yet.",
	})
)

func observeReadResult(kind types.EssenceKind, result types.ReadResult) {
	metricReadResults.WithLabelValues(kind.String(), result.ReadResultKind().String()).Inc()
}

func observeCreation(source sourceType, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metricReaderCreations.WithLabelValues(string(source), outcome).Inc()
}
