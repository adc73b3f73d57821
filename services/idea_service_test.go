package services

import (
	"database/sql/driver"
	"testing"
	"time"

	"idea-review-api/models"
)

func userPreloadStep(userID int64) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: queryRe(`SELECT .* FROM .users. WHERE`),
		columns: []string{"user_id", "user_fname", "user_lname", "email", "role_id"},
		rows: [][]driver.Value{
			{userID, "Ada", "Lovelace", "ada@example.org", int64(models.RoleSubmitter)},
		},
	}
}

func blindPipelineStep() *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: queryRe(`SELECT .* FROM .review_pipelines. WHERE blind_review = \?`),
		columns: []string{"pipeline_id", "name", "category_slug", "is_default", "blind_review"},
		rows: [][]driver.Value{
			{int64(3), "General review", "general", true, true},
		},
	}
}

func TestGetIdeaMasksAuthorForReviewer(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE idea_id = \?`), columns: ideaColumns(), rows: [][]driver.Value{
			{int64(1), "IDEA-AB12CD34", models.StatusUnderReview, int64(2), models.VisibilityPublic, "general"},
		}},
		userPreloadStep(2),
		blindPipelineStep(),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	idea, err := svc.GetIdea(reviewerActor(), 1)
	if err != nil {
		t.Fatalf("GetIdea returned error: %v", err)
	}
	if idea.AuthorDisplayName != AnonymousAuthorName {
		t.Fatalf("expected masked author, got %q", idea.AuthorDisplayName)
	}
	if idea.Author != nil {
		t.Fatalf("expected author relation stripped when masked")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGetIdeaRevealsAuthorToThemselves(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE idea_id = \?`), columns: ideaColumns(), rows: [][]driver.Value{
			{int64(1), "IDEA-AB12CD34", models.StatusUnderReview, int64(2), models.VisibilityPublic, "general"},
		}},
		userPreloadStep(2),
		blindPipelineStep(),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	idea, err := svc.GetIdea(authorActor(), 1)
	if err != nil {
		t.Fatalf("GetIdea returned error: %v", err)
	}
	if idea.AuthorDisplayName != "Ada Lovelace" {
		t.Fatalf("expected real author name, got %q", idea.AuthorDisplayName)
	}
	if idea.Author == nil {
		t.Fatalf("expected author relation kept for the author")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

// Terminal statuses lift the mask even in blind categories.
func TestGetIdeaRevealsAuthorAfterDecision(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE idea_id = \?`), columns: ideaColumns(), rows: [][]driver.Value{
			{int64(1), "IDEA-AB12CD34", models.StatusAccepted, int64(2), models.VisibilityPublic, "general"},
		}},
		userPreloadStep(2),
		blindPipelineStep(),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	idea, err := svc.GetIdea(reviewerActor(), 1)
	if err != nil {
		t.Fatalf("GetIdea returned error: %v", err)
	}
	if idea.AuthorDisplayName != "Ada Lovelace" {
		t.Fatalf("expected mask lifted after decision, got %q", idea.AuthorDisplayName)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGetIdeaHidesOthersDrafts(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour)
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE idea_id = \?`), columns: draftColumns(), rows: [][]driver.Value{
			draftRow(31, expiresAt),
		}},
		userPreloadStep(2),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	_, err := svc.GetIdea(reviewerActor(), 31)
	assertEngineCode(t, err, CodeIdeaNotFound)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestGetIdeaHidesPrivateIdeasFromStrangers(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE idea_id = \?`), columns: ideaColumns(), rows: [][]driver.Value{
			{int64(1), "IDEA-AB12CD34", models.StatusSubmitted, int64(2), models.VisibilityPrivate, "general"},
		}},
		userPreloadStep(2),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	stranger := Actor{UserID: 4, RoleID: models.RoleSubmitter}
	_, err := svc.GetIdea(stranger, 1)
	assertEngineCode(t, err, CodeIdeaNotFound)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestListIdeasRejectsUnknownStatusFilter(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewIdeaService(db, multiStageFeatures())

	_, err := svc.ListIdeas(reviewerActor(), "PENDING")
	assertEngineCode(t, err, CodeValidationError)
}
