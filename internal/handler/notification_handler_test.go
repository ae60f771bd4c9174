package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"feedpulse/internal/domain"
)

func TestParseFeedFilter(t *testing.T) {
	t.Run("DefaultsToPersonal", func(t *testing.T) {
		f := parseFeedFilter("", "")
		assert.Equal(t, domain.ScopePersonal, f.Scope)
		assert.Nil(t, f.OrgID)
		assert.Empty(t, f.Kinds)
	})

	t.Run("CommentsCategory", func(t *testing.T) {
		f := parseFeedFilter("comments", "")
		assert.Equal(t, domain.ScopePersonal, f.Scope)
		assert.Equal(t, domain.CommentFamily, f.Kinds)
	})

	t.Run("PostsCategory", func(t *testing.T) {
		f := parseFeedFilter("posts", "")
		assert.Equal(t, []domain.EventKind{domain.KindArticlePublished}, f.Kinds)
	})

	t.Run("UnknownCategoryDegradesToUnfiltered", func(t *testing.T) {
		f := parseFeedFilter("carrier_pigeons", "")
		assert.Equal(t, domain.ScopePersonal, f.Scope)
		assert.Empty(t, f.Kinds)
	})

	t.Run("OrgScope", func(t *testing.T) {
		orgID := uuid.New()
		f := parseFeedFilter("", orgID.String())
		assert.Equal(t, domain.ScopeOrganization, f.Scope)
		assert.Equal(t, orgID, *f.OrgID)
	})

	t.Run("OrgScopeComposesWithCategory", func(t *testing.T) {
		orgID := uuid.New()
		f := parseFeedFilter("comments", orgID.String())
		assert.Equal(t, domain.ScopeOrganization, f.Scope)
		assert.Equal(t, orgID, *f.OrgID)
		assert.Equal(t, domain.CommentFamily, f.Kinds)
	})

	t.Run("MalformedOrgIDYieldsEmptyOrgScope", func(t *testing.T) {
		f := parseFeedFilter("", "not-a-uuid")
		assert.Equal(t, domain.ScopeOrganization, f.Scope)
		assert.Nil(t, f.OrgID)
	})
}
