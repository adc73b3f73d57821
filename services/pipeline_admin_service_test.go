package services

import (
	"database/sql/driver"
	"testing"

	"idea-review-api/models"
)

func twoStageInput() PipelineInput {
	return PipelineInput{
		Name:         "Engineering review",
		CategorySlug: "engineering",
		Stages: []StageInput{
			{Name: "Screening"},
			{Name: "Decision", IsDecisionStage: true},
		},
	}
}

func TestValidatePipelineInput(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*PipelineInput)
		wantErr bool
	}{
		{"valid two-stage pipeline", func(in *PipelineInput) {}, false},
		{"missing name", func(in *PipelineInput) { in.Name = " " }, true},
		{"missing category", func(in *PipelineInput) { in.CategorySlug = "" }, true},
		{"single stage", func(in *PipelineInput) { in.Stages = in.Stages[1:] }, true},
		{"no decision stage", func(in *PipelineInput) { in.Stages[1].IsDecisionStage = false }, true},
		{"two decision stages", func(in *PipelineInput) { in.Stages[0].IsDecisionStage = true }, true},
		{"decision stage not last", func(in *PipelineInput) {
			in.Stages = []StageInput{
				{Name: "Decision", IsDecisionStage: true},
				{Name: "Screening"},
			}
		}, true},
		{"unnamed stage", func(in *PipelineInput) { in.Stages[0].Name = "  " }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := twoStageInput()
			tc.mutate(&input)
			err := validatePipelineInput(input)
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr {
				assertEngineCode(t, err, CodeValidationError)
			}
		})
	}
}

func TestCreatePipelineWithStages(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .review_pipelines. WHERE category_slug = \?`), columns: []string{"count"}, rows: [][]driver.Value{{int64(0)}}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipelines.`), result: scriptedResult{lastInsertID: 7, rowsAffected: 1}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipeline_stages.`), result: scriptedResult{lastInsertID: 71, rowsAffected: 1}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipeline_stages.`), result: scriptedResult{lastInsertID: 72, rowsAffected: 1}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .audit_logs.`)},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	pipeline, err := svc.CreatePipeline(superadminActor(), twoStageInput())
	if err != nil {
		t.Fatalf("CreatePipeline returned error: %v", err)
	}
	if pipeline.PipelineID != 7 {
		t.Fatalf("expected pipeline id 7, got %d", pipeline.PipelineID)
	}
	if len(pipeline.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(pipeline.Stages))
	}
	if pipeline.Stages[0].StageOrder != 1 || pipeline.Stages[1].StageOrder != 2 {
		t.Fatalf("stage order not assigned by position: %+v", pipeline.Stages)
	}
	if !pipeline.Stages[1].IsDecisionStage {
		t.Fatalf("expected final stage to be the decision stage")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreatePipelineRejectsDuplicateCategory(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .review_pipelines. WHERE category_slug = \?`), columns: []string{"count"}, rows: [][]driver.Value{{int64(1)}}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	_, err := svc.CreatePipeline(superadminActor(), twoStageInput())
	assertEngineCode(t, err, CodePipelineExists)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestPipelineAdminRequiresSuperadmin(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	if _, err := svc.CreatePipeline(reviewerActor(), twoStageInput()); err == nil {
		t.Fatalf("expected error")
	} else {
		assertEngineCode(t, err, CodeForbidden)
	}
	if err := svc.DeletePipeline(reviewerActor(), 7); err == nil {
		t.Fatalf("expected error")
	} else {
		assertEngineCode(t, err, CodeForbidden)
	}
}

func pipelineColumns() []string {
	return []string{"pipeline_id", "name", "category_slug", "is_default", "blind_review"}
}

func TestDeletePipelineProtectsDefault(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .review_pipelines. WHERE pipeline_id = \?`), columns: pipelineColumns(), rows: [][]driver.Value{
			{int64(3), "General review", "general", true, false},
		}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	err := svc.DeletePipeline(superadminActor(), 3)
	assertEngineCode(t, err, CodeCannotDeleteDefault)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDeletePipelineBlockedByOpenReviews(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .review_pipelines. WHERE pipeline_id = \?`), columns: pipelineColumns(), rows: [][]driver.Value{
			{int64(7), "Engineering review", "engineering", false, false},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .idea_stage_progress. JOIN`), columns: []string{"count"}, rows: [][]driver.Value{{int64(2)}}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	err := svc.DeletePipeline(superadminActor(), 7)
	assertEngineCode(t, err, CodePipelineInUse)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDeletePipelineSoftDeletes(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .review_pipelines. WHERE pipeline_id = \?`), columns: pipelineColumns(), rows: [][]driver.Value{
			{int64(7), "Engineering review", "engineering", false, false},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .idea_stage_progress. JOIN`), columns: []string{"count"}, rows: [][]driver.Value{{int64(0)}}},
		{kind: kindExec, pattern: queryRe(`UPDATE .review_pipelines. SET .deleted_at.`)},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .audit_logs.`)},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	if err := svc.DeletePipeline(superadminActor(), 7); err != nil {
		t.Fatalf("DeletePipeline returned error: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestUpdatePipelineBlockedByOpenReviews(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .review_pipelines. WHERE pipeline_id = \?`), columns: pipelineColumns(), rows: [][]driver.Value{
			{int64(7), "Engineering review", "engineering", false, false},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .idea_stage_progress. JOIN`), columns: []string{"count"}, rows: [][]driver.Value{{int64(1)}}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	_, err := svc.UpdatePipeline(superadminActor(), 7, twoStageInput())
	assertEngineCode(t, err, CodeStageInUse)

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEnsureDefaultPipelinesSkipsWhenPresent(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .review_pipelines. WHERE category_slug = \?`), columns: []string{"count"}, rows: [][]driver.Value{{int64(1)}}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	if err := svc.EnsureDefaultPipelines(); err != nil {
		t.Fatalf("EnsureDefaultPipelines returned error: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEnsureDefaultPipelinesSeedsGeneral(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT count.* FROM .review_pipelines. WHERE category_slug = \?`), columns: []string{"count"}, rows: [][]driver.Value{{int64(0)}}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipelines.`), result: scriptedResult{lastInsertID: 1, rowsAffected: 1}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipeline_stages.`), result: scriptedResult{lastInsertID: 11, rowsAffected: 1}},
		{kind: kindExec, pattern: queryRe(`INSERT INTO .review_pipeline_stages.`), result: scriptedResult{lastInsertID: 12, rowsAffected: 1}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineAdminService(db)

	if err := svc.EnsureDefaultPipelines(); err != nil {
		t.Fatalf("EnsureDefaultPipelines returned error: %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEscalationQueueRequiresSuperadmin(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	svc := NewPipelineService(db, multiStageFeatures(), NewNotificationService(db))

	_, err := svc.EscalationQueue(reviewerActor())
	assertEngineCode(t, err, CodeForbidden)
}

func TestEscalationQueueListsPendingEscalations(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .idea_stage_progress. JOIN ideas`), columns: progressColumns(), rows: [][]driver.Value{
			{int64(21), int64(1), int64(101), int64(5), nil, nil, models.OutcomeEscalate},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .ideas. WHERE`), columns: ideaColumns(), rows: [][]driver.Value{
			{int64(1), "IDEA-AB12CD34", models.StatusUnderReview, int64(2), models.VisibilityPublic, "general"},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .users. WHERE`), columns: []string{"user_id", "user_fname", "user_lname", "email", "role_id"}, rows: [][]driver.Value{
			{int64(5), "Grace", "Hopper", "grace@example.org", int64(models.RoleAdmin)},
		}},
		{kind: kindQuery, pattern: queryRe(`SELECT .* FROM .review_pipeline_stages. WHERE`), columns: stageColumns(), rows: [][]driver.Value{
			{int64(101), int64(3), "Screening", int64(1), false},
		}},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewPipelineService(db, multiStageFeatures(), NewNotificationService(db))

	rows, err := svc.EscalationQueue(superadminActor())
	if err != nil {
		t.Fatalf("EscalationQueue returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].ProgressID != 21 {
		t.Fatalf("unexpected escalation queue: %+v", rows)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
