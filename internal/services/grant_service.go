package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/permissions"
	apperrors "github.com/filecrate/filecrate/pkg/errors"
	"github.com/filecrate/filecrate/pkg/metrics"
)

// GrantDTO represents a single grant on a file as returned to clients.
type GrantDTO struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Level    string `json:"level"`
}

// GrantService is the mutation surface for file grants. Only the file's
// owner may mutate or list grants; that precondition is checked through
// the same evaluator the request guard uses.
type GrantService struct {
	db        *gorm.DB
	evaluator *permissions.Evaluator
	resources permissions.ResourceStore
	grants    permissions.GrantStore
}

// NewGrantService constructs a grant service.
func NewGrantService(db *gorm.DB, evaluator *permissions.Evaluator, resources permissions.ResourceStore, grants permissions.GrantStore) (*GrantService, error) {
	if db == nil {
		return nil, errors.New("grant service: db is required")
	}
	if evaluator == nil {
		return nil, errors.New("grant service: evaluator is required")
	}
	if resources == nil {
		return nil, errors.New("grant service: resource store is required")
	}
	if grants == nil {
		return nil, errors.New("grant service: grant store is required")
	}
	return &GrantService{db: db, evaluator: evaluator, resources: resources, grants: grants}, nil
}

// SetGrant stores exactly the given level for the target principal on
// the file. LevelNone removes the grant row; granting to the file's
// owner is a no-op. Returns the file's grants after the mutation.
func (s *GrantService) SetGrant(ctx context.Context, actorID, fileID, targetID string, level permissions.Level) ([]GrantDTO, error) {
	ctx = ensureContext(ctx)

	actorID = strings.TrimSpace(actorID)
	fileID = strings.TrimSpace(fileID)
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, apperrors.NewBadRequest("target user id is required")
	}
	if level != permissions.LevelNone && !level.Grantable() {
		return nil, apperrors.NewBadRequest("level must be read, write, delete or none")
	}

	ownerID, err := s.ensureOwner(ctx, actorID, fileID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUserExists(ctx, targetID); err != nil {
		return nil, err
	}

	switch {
	case targetID == ownerID:
		// The owner already holds maximal rights; never materialise a
		// grant row for them.
	case level == permissions.LevelNone:
		if err := s.grants.DeleteGrant(ctx, fileID, targetID); err != nil {
			return nil, apperrors.ErrInternalServer.WithInternal(err)
		}
		metrics.GrantMutations.WithLabelValues("revoke").Inc()
	default:
		if err := s.grants.UpsertGrant(ctx, fileID, targetID, level); err != nil {
			return nil, apperrors.ErrInternalServer.WithInternal(err)
		}
		metrics.GrantMutations.WithLabelValues("set").Inc()
	}

	return s.loadGrantDTOs(ctx, fileID)
}

// RevokeGrant removes the target's grant on the file. Absence is not an
// error.
func (s *GrantService) RevokeGrant(ctx context.Context, actorID, fileID, targetID string) error {
	ctx = ensureContext(ctx)

	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apperrors.NewBadRequest("target user id is required")
	}

	if _, err := s.ensureOwner(ctx, actorID, fileID); err != nil {
		return err
	}

	if err := s.grants.DeleteGrant(ctx, fileID, targetID); err != nil {
		return apperrors.ErrInternalServer.WithInternal(err)
	}
	metrics.GrantMutations.WithLabelValues("revoke").Inc()
	return nil
}

// ListGrants returns the grants on the file. Listing is part of the
// grant-management surface and therefore owner-gated as well.
func (s *GrantService) ListGrants(ctx context.Context, actorID, fileID string) ([]GrantDTO, error) {
	ctx = ensureContext(ctx)

	if _, err := s.ensureOwner(ctx, actorID, fileID); err != nil {
		return nil, err
	}

	return s.loadGrantDTOs(ctx, fileID)
}

// ensureOwner verifies the acting principal satisfies the owner
// pseudo-level on the file and returns the file's owner id.
func (s *GrantService) ensureOwner(ctx context.Context, actorID, fileID string) (string, error) {
	if actorID == "" {
		return "", apperrors.ErrUnauthorized
	}
	if fileID == "" {
		return "", apperrors.NewBadRequest("file id is required")
	}

	decision, err := s.evaluator.Evaluate(ctx, actorID, fileID, permissions.LevelOwner)
	if err != nil {
		return "", apperrors.ErrEvaluationUnavailable.WithInternal(err)
	}
	if !decision.Allowed {
		if decision.Reason == permissions.ReasonResourceNotFound {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.ErrForbidden
	}

	ownerID, err := s.resources.FindOwner(ctx, fileID)
	if err != nil {
		return "", apperrors.ErrEvaluationUnavailable.WithInternal(err)
	}
	return ownerID, nil
}

func (s *GrantService) ensureUserExists(ctx context.Context, userID string) error {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("user not found")
		}
		return fmt.Errorf("grant service: load user: %w", err)
	}
	return nil
}

func (s *GrantService) loadGrantDTOs(ctx context.Context, fileID string) ([]GrantDTO, error) {
	grants, err := s.grants.ListGrants(ctx, fileID)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithInternal(err)
	}

	dtos := make([]GrantDTO, 0, len(grants))
	if len(grants) == 0 {
		return dtos, nil
	}

	ids := make([]string, 0, len(grants))
	for _, grant := range grants {
		ids = append(ids, grant.PrincipalID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Select("id", "username").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("grant service: load users: %w", err)
	}

	usernames := make(map[string]string, len(users))
	for _, user := range users {
		usernames[user.ID] = user.Username
	}

	for _, grant := range grants {
		dtos = append(dtos, GrantDTO{
			UserID:   grant.PrincipalID,
			Username: usernames[grant.PrincipalID],
			Level:    grant.Level.String(),
		})
	}
	return dtos, nil
}
