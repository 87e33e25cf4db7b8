package api

import (
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

type listRequestMetrics struct {
	logger         *log.Logger
	start          time.Time
	filter         domain.Filter
	fetchDuration  time.Duration
	encodeDuration time.Duration
	tasksReturned  int
	errorStage     string
}

func newListRequestMetrics(logger *log.Logger, filter domain.Filter) *listRequestMetrics {
	return &listRequestMetrics{
		logger: logger,
		start:  time.Now(),
		filter: filter,
	}
}

func (m *listRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *listRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *listRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *listRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *listRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":          "/api/tasks",
		"status":         status,
		"total_ms":       durationToMillis(time.Since(m.start)),
		"filtered":       !m.filter.IsZero(),
		"tasks_returned": m.tasksReturned,
	}

	if m.filter.Status != "" {
		fields["filter_status"] = m.filter.Status
	}
	if m.filter.Priority != "" {
		fields["filter_priority"] = m.filter.Priority
	}
	if m.filter.Category != "" {
		fields["filter_category"] = m.filter.Category
	}
	if m.filter.DateFilter != "" {
		fields["filter_date"] = m.filter.DateFilter
	}
	if m.filter.Search != "" {
		fields["search_len"] = len(m.filter.Search)
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("tasks.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
