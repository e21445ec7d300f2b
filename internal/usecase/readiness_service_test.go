package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	usecasemock "github.com/riskibarqy/kickoff-dashboard/internal/mocks/usecase"
	"github.com/stretchr/testify/mock"
)

func TestReadinessService_Check(t *testing.T) {
	t.Parallel()

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Release()

	api := usecasemock.NewProbe(t)
	api.On("Name").Return("football_api")
	api.On("Ping", mock.Anything).Return(nil).Once()

	identity := usecasemock.NewProbe(t)
	identity.On("Name").Return("identity_provider")
	identity.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

	svc := NewReadinessService(pool, time.Second, nil, api, identity)
	report, err := svc.Check(context.Background())
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if report.Ready {
		t.Fatalf("expected not ready when a probe fails")
	}
	if len(report.Probes) != 2 {
		t.Fatalf("expected 2 probe results, got %d", len(report.Probes))
	}
	if !report.Probes[0].OK || report.Probes[0].Name != "football_api" {
		t.Fatalf("unexpected first probe result: %+v", report.Probes[0])
	}
	if report.Probes[1].OK || report.Probes[1].Error != "connection refused" {
		t.Fatalf("unexpected second probe result: %+v", report.Probes[1])
	}
}

func TestReadinessService_AllHealthy(t *testing.T) {
	t.Parallel()

	pool, err := ants.NewPool(1)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Release()

	probe := usecasemock.NewProbe(t)
	probe.On("Name").Return("football_api")
	probe.On("Ping", mock.Anything).Return(nil).Once()

	report, err := NewReadinessService(pool, time.Second, nil, probe).Check(context.Background())
	if err != nil {
		t.Fatalf("check readiness: %v", err)
	}
	if !report.Ready {
		t.Fatalf("expected ready report, got %+v", report)
	}
}
