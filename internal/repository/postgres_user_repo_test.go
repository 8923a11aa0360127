package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// PostgreSQLのエラーコード23505のみを一意制約違反とみなす
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"foreign key violation", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresTokenRepo(nil) == nil {
		t.Error("expected non-nil token repo")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Error("expected non-nil post repo")
	}
	if NewPostgresCommentRepo(nil) == nil {
		t.Error("expected non-nil comment repo")
	}
}
