package useradmin

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/ovee/byceps/internal/domain/user"
	"github.com/ovee/byceps/pkg/security"
)

const importPasswordLength = 24

// importLine is one record of the JSON lines import format.
type importLine struct {
	ScreenName   string `json:"screen_name" validate:"required,min=2,max=40"`
	EmailAddress string `json:"email_address" validate:"omitempty,email"`
}

// ImportError describes why a single input line was not imported.
type ImportError struct {
	Line    int
	Message string
}

// ImportResult summarizes a bulk user import.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportUsers reads JSON lines from r and creates one uninitialized
// user account per line. Each account gets a random password. Lines
// that fail to parse, fail validation or collide with an existing
// screen name are skipped and reported; the rest are still imported.
func (uc *useCase) ImportUsers(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := uc.importLine(ctx, line); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportError{Line: lineNo, Message: err.Error()})
			uc.log.Warn("skipped import line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		result.Imported++
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read input: %w", err)
	}

	if result.Imported > 0 {
		uc.invalidateCounts(ctx)
	}
	uc.log.Info("user import finished",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func (uc *useCase) importLine(ctx context.Context, line string) error {
	var rec importLine
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := uc.validate.Struct(rec); err != nil {
		return fmt.Errorf("%s", formatValidationError(err))
	}

	existing, err := uc.repo.GetByScreenName(ctx, rec.ScreenName)
	if err != nil {
		return fmt.Errorf("check screen name: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("screen name %q is already in use", rec.ScreenName)
	}

	password, err := security.GeneratePassword(importPasswordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		ScreenName:   rec.ScreenName,
		EmailAddress: rec.EmailAddress,
	}
	if err := uc.repo.Create(ctx, u, string(hash)); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
