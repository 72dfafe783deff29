package useradmin

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/ovee/byceps/internal/domain/user"
)

func TestImportUsers(t *testing.T) {
	uc, repo, counts := newTestUseCase(t)
	ctx := context.Background()

	repo.On("GetByScreenName", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return !u.Initialized
	}), mock.AnythingOfType("string")).Return(nil)
	counts.On("InvalidateUserCounts", ctx).Return(nil)

	input := strings.Join([]string{
		`{"screen_name": "imp1", "email_address": "imp1@example.test"}`,
		``,
		`{"screen_name": "imp2"}`,
	}, "\n")

	result, err := uc.ImportUsers(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestImportUsersSkipsBadLines(t *testing.T) {
	uc, repo, counts := newTestUseCase(t)
	ctx := context.Background()

	repo.On("GetByScreenName", ctx, "taken").Return(activeUser("taken"), nil)
	repo.On("GetByScreenName", ctx, "fresh").Return(nil, nil)
	repo.On("Create", ctx, mock.Anything, mock.AnythingOfType("string")).Return(nil)
	counts.On("InvalidateUserCounts", ctx).Return(nil)

	input := strings.Join([]string{
		`not json at all`,
		`{"screen_name": "x"}`,
		`{"screen_name": "taken"}`,
		`{"screen_name": "fresh"}`,
	}, "\n")

	result, err := uc.ImportUsers(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 1, result.Errors[0].Line)
	assert.Equal(t, 3, result.Errors[2].Line)
}

func TestImportUsersNoInvalidationWhenNothingImported(t *testing.T) {
	uc, _, counts := newTestUseCase(t)

	result, err := uc.ImportUsers(context.Background(), strings.NewReader("garbage\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	counts.AssertNotCalled(t, "InvalidateUserCounts", mock.Anything)
}
