package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalscanner", Name: "pipeline_runs_total", Help: "Number of pipeline runs by outcome."},
		[]string{"outcome"},
	)
	CandidatesDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalscanner", Name: "candidates_discovered_total", Help: "Number of candidate links discovered by topic."},
		[]string{"topic"},
	)
	CandidatesValidated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalscanner", Name: "candidates_validated_total", Help: "Number of validation outcomes by result."},
		[]string{"result"},
	)
	DocumentsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalscanner", Name: "documents_stored_total", Help: "Number of documents accepted and stored by topic."},
		[]string{"topic"},
	)
	ClassifierRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "legalscanner", Name: "classifier_rejections_total", Help: "Number of not-relevant verdicts (including degraded ones) by topic."},
		[]string{"topic"},
	)
)

// RegisterCollectors attaches all pipeline collectors to the registry.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PipelineRuns)
	reg.MustRegister(CandidatesDiscovered)
	reg.MustRegister(CandidatesValidated)
	reg.MustRegister(DocumentsStored)
	reg.MustRegister(ClassifierRejections)
}
