package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: fmt.Errorf("run: %w", context.DeadlineExceeded), want: SchedulerJobReasonDeadlineExceeded},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: SchedulerJobReasonUniqueViolation},
		{name: "not_found", err: gorm.ErrRecordNotFound, want: SchedulerJobReasonNotFound},
		{name: "unknown", err: errors.New("boom"), want: SchedulerJobReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewSchedulerMetrics(registry, Config{
		ServiceName: "ksheermitra",
		Environment: "test",
	})

	metrics.AddBatchProcessed("monthly_invoices", "customers", 3)
	metrics.AddBatchProcessed("monthly_invoices", "customers", 0)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("monthly_invoices", "customers"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestIncJobErrorUsesReason(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewSchedulerMetrics(registry, Config{})

	metrics.IncJobError("monthly_invoices", context.DeadlineExceeded)
	metrics.IncJobError("monthly_invoices", nil)

	got := testutil.ToFloat64(metrics.jobErrors.WithLabelValues("monthly_invoices", SchedulerJobReasonDeadlineExceeded))
	if got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
}
