package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint8

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterDuplicate
	MetricRegisterFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricMFARequired
	MetricMFASuccess
	MetricMFAFailure
	MetricRefreshSuccess
	MetricRefreshInvalid
	MetricLogout
	MetricEmailVerificationRequest
	MetricEmailVerificationConfirm
	MetricPasswordResetRequest
	MetricPasswordResetConfirm
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricRegisterSuccess:          "register_success",
	MetricRegisterDuplicate:        "register_duplicate",
	MetricRegisterFailure:          "register_failure",
	MetricLoginSuccess:             "login_success",
	MetricLoginFailure:             "login_failure",
	MetricLoginRateLimited:         "login_rate_limited",
	MetricMFARequired:              "mfa_required",
	MetricMFASuccess:               "mfa_success",
	MetricMFAFailure:               "mfa_failure",
	MetricRefreshSuccess:           "refresh_success",
	MetricRefreshInvalid:           "refresh_invalid",
	MetricLogout:                   "logout",
	MetricEmailVerificationRequest: "email_verification_request",
	MetricEmailVerificationConfirm: "email_verification_confirm",
	MetricPasswordResetRequest:     "password_reset_request",
	MetricPasswordResetConfirm:     "password_reset_confirm",
	MetricPasswordChangeSuccess:    "password_change_success",
	MetricPasswordChangeFailure:    "password_change_failure",
}

// Name returns the stable snake_case identifier exporters publish under.
func (id MetricID) Name() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// MetricIDs lists every counter in export order.
func MetricIDs() []MetricID {
	out := make([]MetricID, metricIDCount)
	for i := range out {
		out[i] = MetricID(i)
	}
	return out
}

// Metrics is the engine's in-process counter set. All methods are safe for
// concurrent use and nil receivers are inert.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics returns an empty counter set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil {
		return s
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = m.counters[id].Load()
	}
	return s
}

// metricForAction maps audit actions onto counters, so the flows record
// both through a single emit call. A counter tracks occurrences of its
// action regardless of the event's success flag.
var metricForAction = map[string]MetricID{
	auditEventRegisterSuccess:          MetricRegisterSuccess,
	auditEventRegisterDuplicate:        MetricRegisterDuplicate,
	auditEventRegisterFailure:          MetricRegisterFailure,
	auditEventLoginSuccess:             MetricLoginSuccess,
	auditEventLoginFailure:             MetricLoginFailure,
	auditEventLoginRateLimited:         MetricLoginRateLimited,
	auditEventMFARequired:              MetricMFARequired,
	auditEventMFASuccess:               MetricMFASuccess,
	auditEventMFAFailure:               MetricMFAFailure,
	auditEventRefreshSuccess:           MetricRefreshSuccess,
	auditEventRefreshInvalid:           MetricRefreshInvalid,
	auditEventLogout:                   MetricLogout,
	auditEventEmailVerificationRequest: MetricEmailVerificationRequest,
	auditEventEmailVerificationConfirm: MetricEmailVerificationConfirm,
	auditEventPasswordResetRequest:     MetricPasswordResetRequest,
	auditEventPasswordResetConfirm:     MetricPasswordResetConfirm,
	auditEventPasswordChangeSuccess:    MetricPasswordChangeSuccess,
	auditEventPasswordChangeFailure:    MetricPasswordChangeFailure,
}
