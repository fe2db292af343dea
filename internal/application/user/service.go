package user

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/lunch-picker/lunch-picker/internal/domain/user"
)

// Service manages the directory of users allowed to open sessions.
type Service struct {
	repo   domain.Repository
	logger zerolog.Logger
}

// NewService creates a user service.
func NewService(repo domain.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// LoadCSV bulk-loads usernames from a CSV file. The first line is a header;
// the username is the first column of every following line. Blank names are
// skipped. An empty path loads nothing.
func (s *Service) LoadCSV(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open users csv: %w", err)
	}
	defer f.Close()

	n, err := s.Load(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("load users csv %s: %w", path, err)
	}
	s.logger.Info().Str("path", path).Int("count", n).Msg("users loaded")
	return n, nil
}

// Load reads CSV records from r and upserts them.
func (s *Service) Load(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{})
	var users []*domain.User
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(record) == 0 {
			continue
		}
		name := domain.NormalizeUsername(record[0])
		if err := domain.ValidateUsername(name); err != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		users = append(users, &domain.User{Username: name, LoadedAt: now})
	}
	if len(users) == 0 {
		return 0, nil
	}
	return s.repo.Upsert(ctx, users)
}

// ListUsers returns all known users ordered by username.
func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}
