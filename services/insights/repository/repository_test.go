// Copyright (C) 2025 Stephane Wamba (genai-data-insights-platform)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephaneWamba/genai-data-insights-platform/services/insights/datatypes"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetQuestion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "Why are sales down?", "u1")
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.False(t, created.Processed)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Why are sales down?", got.Text)
	assert.Equal(t, "u1", got.UserID)
	assert.False(t, got.Processed)
	assert.Empty(t, got.Response)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetMissingQuestion(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkProcessed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "What about inventory?", "")
	require.NoError(t, err)

	require.NoError(t, s.MarkProcessed(ctx, created.ID, "Inventory is healthy"))

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, "Inventory is healthy", got.Response)

	assert.ErrorIs(t, s.MarkProcessed(ctx, 9999, "x"), ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"first question", "second question", "third question"} {
		_, err := s.Create(ctx, text, "")
		require.NoError(t, err)
	}

	page, err := s.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "third question", page[0].Text)
	assert.Equal(t, "second question", page[1].Text)

	rest, err := s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "first question", rest[0].Text)
}

func TestStoreAndFetchInsights(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	q, err := s.Create(ctx, "Why are sales down?", "")
	require.NoError(t, err)

	insights := []datatypes.Insight{
		{
			Title:           "Revenue dipped",
			Description:     "Down 12% week over week",
			Category:        datatypes.CategoryTrend,
			ConfidenceScore: 0.8,
			DataSources:     []string{"sales_data"},
			ActionItems:     []string{"Check staffing", "Review pricing"},
			DataEvidence:    []string{"Revenue $41,200"},
		},
		{
			Title:           "Margin held",
			Description:     "Margin stayed at 25%",
			Category:        datatypes.CategorySummary,
			ConfidenceScore: 0.7,
			DataSources:     []string{"sales_data"},
		},
	}

	stored, err := s.StoreInsights(ctx, q.ID, insights)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Greater(t, stored[0].ID, int64(0))
	assert.Equal(t, q.ID, stored[0].QuestionID)

	fetched, err := s.InsightsFor(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, "Revenue dipped", fetched[0].Title)
	assert.Equal(t, datatypes.CategoryTrend, fetched[0].Category)
	assert.Equal(t, []string{"Check staffing", "Review pricing"}, fetched[0].ActionItems)
	assert.Equal(t, []string{"Revenue $41,200"}, fetched[0].DataEvidence)
	assert.Empty(t, fetched[1].ActionItems)
}

func TestInsightsForUnknownQuestionIsEmpty(t *testing.T) {
	s := openTestStore(t)

	fetched, err := s.InsightsFor(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, fetched)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.migrate())
}
