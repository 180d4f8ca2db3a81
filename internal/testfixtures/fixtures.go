// Package testfixtures provides shared forms, packs and campaign data for
// tests across the engine packages.
package testfixtures

import (
	"fmt"
	"time"

	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/roles"
	"ustudiopd/eventlive/pkg/survey"
)

// Question ids of the sample form.
const (
	QTimeline  = "q-timeline"
	QFollowup  = "q-followup"
	QProject   = "q-project"
	QBudget    = "q-budget"
	QAuthority = "q-authority"
	QChannel   = "q-channel"
	QComments  = "q-comments"
)

// Questions returns the sample webinar registration form. Roles are pinned
// with overrides so tests do not depend on keyword tables.
func Questions() []survey.Question {
	return []survey.Question{
		{
			ID: QTimeline, OrderNo: 1, Body: "When do you plan to adopt a solution?", Type: survey.TypeSingle,
			RoleOverride: "timeline",
			Options: []survey.Option{
				{ID: "t1", Text: "Within 1 week"},
				{ID: "t2", Text: "Within 1 month"},
				{ID: "t3", Text: "No plan"},
			},
		},
		{
			ID: QFollowup, OrderNo: 2, Body: "Would you like a follow-up?", Type: survey.TypeSingle,
			RoleOverride: "followup_intent",
			Options: []survey.Option{
				{ID: "f1", Text: "Visit"},
				{ID: "f2", Text: "None"},
			},
		},
		{
			ID: QProject, OrderNo: 3, Body: "Which area are you interested in?", Type: survey.TypeMultiple,
			RoleOverride: "project_type",
			Options: []survey.Option{
				{ID: "p1", Text: "Cloud"},
				{ID: "p2", Text: "Security"},
				{ID: "p3", Text: "Data"},
			},
		},
		{
			ID: QBudget, OrderNo: 4, Body: "Is budget allocated?", Type: survey.TypeSingle,
			RoleOverride: "budget_status",
			Options: []survey.Option{
				{ID: "b1", Text: "Yes, allocated"},
				{ID: "b2", Text: "Not yet"},
			},
		},
		{
			ID: QAuthority, OrderNo: 5, Body: "What is your role in the decision?", Type: survey.TypeSingle,
			RoleOverride: "authority_level",
			Options: []survey.Option{
				{ID: "a1", Text: "Decision maker"},
				{ID: "a2", Text: "Influencer"},
				{ID: "a3", Text: "End user"},
			},
		},
		{
			ID: QChannel, OrderNo: 6, Body: "Preferred contact channel?", Type: survey.TypeMultiple,
			RoleOverride: "other",
			Options: []survey.Option{
				{ID: "c1", Text: "Email"},
				{ID: "c2", Text: "Phone"},
				{ID: "c3", Text: "Messenger"},
			},
		},
		{ID: QComments, OrderNo: 7, Body: "Any comments?", Type: survey.TypeText},
	}
}

// QuestionsWithRoles returns Questions annotated by role inference.
func QuestionsWithRoles() []roles.QuestionWithRole {
	return roles.InferAll(Questions())
}

// Fingerprint returns the fingerprint of the sample form.
func Fingerprint() string {
	return survey.FingerprintQuestions(Questions())
}

// Pack returns a valid draft pack authored against the sample form.
func Pack() *guideline.Pack {
	return &guideline.Pack{
		Version:           guideline.Version,
		ID:                "gp-sample",
		CampaignID:        "camp-1",
		FormID:            "form-1",
		FormFingerprint:   Fingerprint(),
		FormQuestionCount: len(Questions()),
		Status:            guideline.StatusDraft,
		Title:             "Sample webinar guideline",
		Objectives: guideline.Objectives{
			DefaultLens: "sales",
			DecisionQuestions: []guideline.DecisionQuestion{
				{ID: "dq1", Question: "Which leads should sales call this week?", Roles: []roles.Role{roles.Timeline, roles.FollowupIntent}},
			},
		},
		QuestionMap: []guideline.QuestionMapping{
			{
				QuestionID: QTimeline, Role: roles.Timeline, Importance: guideline.ImportanceCore, OrderNo: 1,
				OptionScores: []guideline.OptionScore{
					{OptionID: "t1", Score: 100},
					{OptionID: "t2", Score: 70},
					{OptionText: "No plan", Score: 0},
				},
				Groups: []guideline.OptionGroup{
					{Label: "Soon", OptionIDs: []string{"t1", "t2"}},
				},
			},
			{
				QuestionID: QFollowup, Role: roles.FollowupIntent, Importance: guideline.ImportanceCore, OrderNo: 2,
				OptionScores: []guideline.OptionScore{
					{OptionID: "f1", Score: 100},
					{OptionID: "f2", Score: 0},
				},
			},
			{QuestionID: QProject, Role: roles.ProjectType, Importance: guideline.ImportanceSupporting, OrderNo: 3},
			{QuestionID: QBudget, Role: roles.BudgetStatus, Importance: guideline.ImportanceOptional, OrderNo: 4},
			{QuestionID: QAuthority, Role: roles.AuthorityLevel, Importance: guideline.ImportanceOptional, OrderNo: 5},
		},
		CrosstabPlan: guideline.CrosstabPlan{
			MinCellCount: 5,
			Pinned: []guideline.CrosstabPair{
				{RowRole: roles.Timeline, ColRole: roles.FollowupIntent},
				{RowRole: roles.ProjectType, ColRole: roles.FollowupIntent},
			},
		},
		LeadScoring: guideline.LeadScoring{
			Enabled: true,
			Components: []guideline.ScoreComponent{
				{Role: roles.Timeline, Weight: 2},
				{Role: roles.FollowupIntent, Weight: 2},
				{Role: roles.BudgetStatus, Weight: 1},
				{Role: roles.AuthorityLevel, Weight: 1},
			},
			TierThresholds: guideline.DefaultThresholds,
			Actions: map[guideline.Tier]string{
				guideline.TierP0: "Call today",
				guideline.TierP1: "Email a proposal this week",
				guideline.TierP2: "Invite to the next demo",
				guideline.TierP3: "Add to nurture",
				guideline.TierP4: "No action",
			},
		},
	}
}

// Epoch is the fixed clock used by fixtures.
var Epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type row struct {
	n        int
	timeline string
	followup string
}

// ScenarioCampaign returns 50 submissions over the sample form:
//
//	20 × (Within 1 week, Visit)
//	 5 × (Within 1 week, None)
//	 5 × (Within 1 month, Visit)
//	10 × (Within 1 month, None)
//	10 × (No plan, None)
//
// Every tenth respondent also answers budget, authority, project, channel
// and a comment.
func ScenarioCampaign() *survey.CampaignData {
	data := &survey.CampaignData{
		CampaignID:   "camp-1",
		FormID:       "form-1",
		FormRevision: "rev-1",
		Title:        "Cloud Security Webinar",
		Questions:    Questions(),
	}

	plan := []row{
		{20, "t1", "f1"},
		{5, "t1", "f2"},
		{5, "t2", "f1"},
		{10, "t2", "f2"},
		{10, "t3", "f2"},
	}
	i := 0
	for _, r := range plan {
		for k := 0; k < r.n; k++ {
			i++
			sub := fmt.Sprintf("s%02d", i)
			data.Submissions = append(data.Submissions, survey.Submission{
				ID:          sub,
				SubmittedAt: Epoch.Add(time.Duration(i) * time.Minute),
			})
			data.Answers = append(data.Answers,
				survey.Answer{SubmissionID: sub, QuestionID: QTimeline, OptionIDs: []string{r.timeline}},
				survey.Answer{SubmissionID: sub, QuestionID: QFollowup, OptionIDs: []string{r.followup}},
			)
			if i%10 == 0 {
				data.Answers = append(data.Answers,
					survey.Answer{SubmissionID: sub, QuestionID: QBudget, OptionIDs: []string{"b1"}},
					survey.Answer{SubmissionID: sub, QuestionID: QAuthority, OptionIDs: []string{"a1"}},
					survey.Answer{SubmissionID: sub, QuestionID: QProject, OptionIDs: []string{"p2", "p1"}},
					survey.Answer{SubmissionID: sub, QuestionID: QChannel, OptionIDs: []string{"c2"}},
					survey.Answer{SubmissionID: sub, QuestionID: QComments, Text: "Please call me at 010-1234-5678"},
				)
			}
		}
	}
	return data
}
