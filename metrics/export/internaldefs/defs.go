package internaldefs

import (
	goToken "github.com/MrEthical07/goToken"
)

// CounterDef maps a counter to its exported name.
type CounterDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// HistogramDef maps a latency histogram to its exported name.
type HistogramDef struct {
	ID   goToken.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: goToken.MetricIssueSuccess, Name: "gotoken_issue_success_total", Help: "Issued token pairs."},
	{ID: goToken.MetricIssueFailure, Name: "gotoken_issue_failure_total", Help: "Issue calls that returned an error."},
	{ID: goToken.MetricIssueFailOpen, Name: "gotoken_issue_fail_open_total", Help: "Token pairs returned without a saved refresh record."},
	{ID: goToken.MetricVerifyValid, Name: "gotoken_verify_valid_total", Help: "Access tokens that verified."},
	{ID: goToken.MetricVerifyExpired, Name: "gotoken_verify_expired_total", Help: "Access tokens with a good signature past expiry."},
	{ID: goToken.MetricVerifyInvalid, Name: "gotoken_verify_invalid_total", Help: "Access tokens that failed verification."},
	{ID: goToken.MetricReissueSuccess, Name: "gotoken_reissue_success_total", Help: "Access tokens reissued from a refresh token."},
	{ID: goToken.MetricReissueInvalid, Name: "gotoken_reissue_invalid_total", Help: "Reissue attempts with an invalid refresh token."},
	{ID: goToken.MetricReissueExpired, Name: "gotoken_reissue_expired_total", Help: "Reissue attempts with an expired refresh token."},
	{ID: goToken.MetricReissueNotLive, Name: "gotoken_reissue_not_live_total", Help: "Reissue attempts with a superseded or revoked refresh token."},
	{ID: goToken.MetricReissueRateLimited, Name: "gotoken_reissue_rate_limited_total", Help: "Reissue attempts denied by the throttle."},
	{ID: goToken.MetricReissueRecordCorrupt, Name: "gotoken_reissue_record_corrupt_total", Help: "Refresh records that failed to decode."},
	{ID: goToken.MetricStoreUnavailable, Name: "gotoken_store_unavailable_total", Help: "Refresh store calls that failed or timed out."},
	{ID: goToken.MetricLogout, Name: "gotoken_logout_total", Help: "Logout operations."},
	{ID: goToken.MetricLogoutFailure, Name: "gotoken_logout_failure_total", Help: "Logout operations that failed."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goToken.MetricVerifyLatency, Name: "gotoken_verify_latency_seconds", Help: "Access verification latency histogram."},
	{ID: goToken.MetricReissueLatency, Name: "gotoken_reissue_latency_seconds", Help: "Reissue latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets
// recorded by goToken.Metrics.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into the running totals
// Prometheus expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
