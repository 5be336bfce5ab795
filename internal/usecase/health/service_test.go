package health

import (
	"context"
	"errors"
	"testing"
)

type mockIndex struct {
	length int
	dim    int
}

func (m *mockIndex) Len() int       { return m.length }
func (m *mockIndex) Dimension() int { return m.dim }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	s := New(&mockIndex{length: 42, dim: 1536}, &mockChecker{})

	report := s.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %v, want healthy", report.Status)
	}
	if report.Checks["embedding"] != CheckOK {
		t.Errorf("embedding check = %v", report.Checks["embedding"])
	}
	if report.Passages != 42 {
		t.Errorf("passages = %d, want 42", report.Passages)
	}
}

func TestCheck_EmptyIndexIsHealthy(t *testing.T) {
	s := New(&mockIndex{}, nil)

	report := s.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %v, want healthy for empty index", report.Status)
	}
	if report.Passages != 0 {
		t.Errorf("passages = %d, want 0", report.Passages)
	}
}

func TestCheck_EmbeddingFailureDegrades(t *testing.T) {
	s := New(&mockIndex{length: 1}, &mockChecker{err: errors.New("provider down")})

	report := s.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %v, want degraded", report.Status)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("embedding check = %v, want error", report.Checks["embedding"])
	}
	if report.Checks["index"] != CheckOK {
		t.Errorf("index check = %v, want ok", report.Checks["index"])
	}
}

func TestCheck_NoEmbeddingCheckerConfigured(t *testing.T) {
	s := New(&mockIndex{length: 1}, nil)

	report := s.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %v, want healthy", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check present without a checker")
	}
}
