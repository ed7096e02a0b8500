package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records execution metadata for scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
// A nil registerer yields a no-op instance.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}

// PipelineMetrics counts lead lifecycle events as they flow through the
// matching and settlement pipeline.
type PipelineMetrics struct {
	leadsCreated  prometheus.Counter
	alertsSent    *prometheus.CounterVec
	alertFailures *prometheus.CounterVec
	salesSettled  prometheus.Counter
	payoutsQueued prometheus.Counter
}

// NewPipelineMetrics registers pipeline counters on the provided registerer.
// A nil registerer yields a no-op instance.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	leadsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leads_created_total",
		Help: "Leads accepted for matching.",
	})
	alertsSent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_alerts_sent_total",
		Help: "Lead alerts delivered, by channel.",
	}, []string{"channel"})
	alertFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_alert_failures_total",
		Help: "Lead alert delivery failures, by channel.",
	}, []string{"channel"})
	salesSettled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lead_sales_settled_total",
		Help: "Leads settled as sold from confirmed payments.",
	})
	payoutsQueued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payouts_queued_total",
		Help: "Seller payouts queued for disbursement.",
	})
	reg.MustRegister(leadsCreated, alertsSent, alertFailures, salesSettled, payoutsQueued)
	return &PipelineMetrics{
		leadsCreated:  leadsCreated,
		alertsSent:    alertsSent,
		alertFailures: alertFailures,
		salesSettled:  salesSettled,
		payoutsQueued: payoutsQueued,
	}
}

// IncLeadsCreated counts an accepted lead.
func (p *PipelineMetrics) IncLeadsCreated() {
	if p == nil || p.leadsCreated == nil {
		return
	}
	p.leadsCreated.Inc()
}

// IncAlertSent counts a delivered alert on the given channel.
func (p *PipelineMetrics) IncAlertSent(channel string) {
	if p == nil || p.alertsSent == nil {
		return
	}
	p.alertsSent.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncAlertFailure counts a delivery failure on the given channel.
func (p *PipelineMetrics) IncAlertFailure(channel string) {
	if p == nil || p.alertFailures == nil {
		return
	}
	p.alertFailures.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncSalesSettled counts a lead transitioned to sold.
func (p *PipelineMetrics) IncSalesSettled() {
	if p == nil || p.salesSettled == nil {
		return
	}
	p.salesSettled.Inc()
}

// IncPayoutsQueued counts a queued seller payout.
func (p *PipelineMetrics) IncPayoutsQueued() {
	if p == nil || p.payoutsQueued == nil {
		return
	}
	p.payoutsQueued.Inc()
}
