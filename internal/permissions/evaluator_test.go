package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResourceStore struct {
	owners map[string]string
	err    error
}

func (s *fakeResourceStore) FindOwner(_ context.Context, resourceID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	owner, ok := s.owners[resourceID]
	if !ok {
		return "", ErrResourceNotFound
	}
	return owner, nil
}

type fakeGrantStore struct {
	grants map[string]Level // keyed resourceID + "/" + principalID
	err    error
}

func (s *fakeGrantStore) FindGrant(_ context.Context, resourceID, principalID string) (Level, error) {
	if s.err != nil {
		return LevelNone, s.err
	}
	level, ok := s.grants[resourceID+"/"+principalID]
	if !ok {
		return LevelNone, ErrGrantNotFound
	}
	return level, nil
}

func (s *fakeGrantStore) UpsertGrant(_ context.Context, resourceID, principalID string, level Level) error {
	s.grants[resourceID+"/"+principalID] = level
	return nil
}

func (s *fakeGrantStore) DeleteGrant(_ context.Context, resourceID, principalID string) error {
	delete(s.grants, resourceID+"/"+principalID)
	return nil
}

func (s *fakeGrantStore) DeleteAllGrants(_ context.Context, _ string) error { return nil }

func (s *fakeGrantStore) ListGrants(_ context.Context, _ string) ([]Grant, error) {
	return nil, nil
}

func newTestEvaluator(t *testing.T, owners map[string]string, grants map[string]Level) *Evaluator {
	t.Helper()

	if owners == nil {
		owners = map[string]string{}
	}
	if grants == nil {
		grants = map[string]Level{}
	}
	evaluator, err := NewEvaluator(&fakeResourceStore{owners: owners}, &fakeGrantStore{grants: grants})
	require.NoError(t, err)
	return evaluator
}

func TestNewEvaluatorRequiresStores(t *testing.T) {
	_, err := NewEvaluator(nil, &fakeGrantStore{})
	require.Error(t, err)
	_, err = NewEvaluator(&fakeResourceStore{}, nil)
	require.Error(t, err)
}

func TestEvaluateOwnerAlwaysAllowed(t *testing.T) {
	evaluator := newTestEvaluator(t, map[string]string{"file-1": "alice"}, nil)

	for _, required := range []Level{LevelRead, LevelWrite, LevelDelete, LevelOwner} {
		decision, err := evaluator.Evaluate(context.Background(), "alice", "file-1", required)
		require.NoError(t, err)
		require.True(t, decision.Allowed, required.String())
		require.Equal(t, ReasonOwner, decision.Reason)
		require.Equal(t, LevelOwner, decision.Held)
		require.Equal(t, required, decision.Required)
	}
}

func TestEvaluateGrantMonotonicity(t *testing.T) {
	evaluator := newTestEvaluator(t,
		map[string]string{"file-1": "alice"},
		map[string]Level{"file-1/bob": LevelWrite},
	)

	decision, err := evaluator.Evaluate(context.Background(), "bob", "file-1", LevelRead)
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, ReasonGrant, decision.Reason)
	require.Equal(t, LevelWrite, decision.Held)

	decision, err = evaluator.Evaluate(context.Background(), "bob", "file-1", LevelWrite)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	decision, err = evaluator.Evaluate(context.Background(), "bob", "file-1", LevelDelete)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonInsufficientLevel, decision.Reason)
	require.Equal(t, LevelWrite, decision.Held)
	require.Equal(t, LevelDelete, decision.Required)
}

func TestEvaluateNoGrant(t *testing.T) {
	evaluator := newTestEvaluator(t, map[string]string{"file-1": "alice"}, nil)

	decision, err := evaluator.Evaluate(context.Background(), "mallory", "file-1", LevelRead)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNoGrant, decision.Reason)
	require.Equal(t, LevelNone, decision.Held)
}

func TestEvaluateOwnerRequirementDeniesGrantHolders(t *testing.T) {
	evaluator := newTestEvaluator(t,
		map[string]string{"file-1": "alice"},
		map[string]Level{"file-1/bob": LevelDelete},
	)

	decision, err := evaluator.Evaluate(context.Background(), "bob", "file-1", LevelOwner)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNotOwner, decision.Reason)
}

func TestEvaluateMissingResource(t *testing.T) {
	evaluator := newTestEvaluator(t, nil, nil)

	decision, err := evaluator.Evaluate(context.Background(), "alice", "ghost", LevelRead)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonResourceNotFound, decision.Reason)
}

func TestEvaluateValidatesArguments(t *testing.T) {
	evaluator := newTestEvaluator(t, map[string]string{"file-1": "alice"}, nil)

	_, err := evaluator.Evaluate(context.Background(), "", "file-1", LevelRead)
	require.Error(t, err)
	_, err = evaluator.Evaluate(context.Background(), "alice", "  ", LevelRead)
	require.Error(t, err)
	_, err = evaluator.Evaluate(context.Background(), "alice", "file-1", LevelNone)
	require.Error(t, err)
}

func TestEvaluateSurfacesStoreFaults(t *testing.T) {
	boom := errors.New("connection reset")

	evaluator, err := NewEvaluator(&fakeResourceStore{err: boom}, &fakeGrantStore{grants: map[string]Level{}})
	require.NoError(t, err)
	_, err = evaluator.Evaluate(context.Background(), "alice", "file-1", LevelRead)
	require.ErrorIs(t, err, boom)

	evaluator, err = NewEvaluator(
		&fakeResourceStore{owners: map[string]string{"file-1": "alice"}},
		&fakeGrantStore{err: boom},
	)
	require.NoError(t, err)
	_, err = evaluator.Evaluate(context.Background(), "bob", "file-1", LevelRead)
	require.ErrorIs(t, err, boom)
}
