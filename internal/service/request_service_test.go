package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/internal/repository"
)

func newTestRequestService() (*RequestService, *fakeRequestStore, *fakeNotificationStore) {
	requests := newFakeRequestStore()
	notifications := newFakeNotificationStore()
	return NewRequestService(requests, notifications, nil), requests, notifications
}

func TestCreateRequestWritesOneHistoryRow(t *testing.T) {
	svc, requests, _ := newTestRequestService()

	req, err := svc.CreateRequest(context.Background(), &CreateRequestInput{
		RequesterID: "resident-1",
		CategoryID:  categoryPlumbing,
		Description: "broken heater",
		Latitude:    requestOrigin.Latitude,
		Longitude:   requestOrigin.Longitude,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, req.Status)
	assert.Nil(t, req.ProviderID)

	history, err := requests.GetStatusHistory(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusPending, history[0].Status)
	assert.Equal(t, "resident-1", history[0].ChangedBy)
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _, _ := newTestRequestService()

	cases := []struct {
		name string
		in   CreateRequestInput
	}{
		{"missing requester", CreateRequestInput{CategoryID: categoryPlumbing}},
		{"missing category", CreateRequestInput{RequesterID: "resident-1"}},
		{"latitude out of range", CreateRequestInput{RequesterID: "resident-1", CategoryID: categoryPlumbing, Latitude: 91}},
		{"longitude out of range", CreateRequestInput{RequesterID: "resident-1", CategoryID: categoryPlumbing, Longitude: -181}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRequest(context.Background(), &tc.in)
			assert.Error(t, err)
		})
	}
}

func TestUpdateStatusCompletedNotifiesResident(t *testing.T) {
	svc, requests, notifications := newTestRequestService()

	req := createPendingRequest(t, requests)
	_, err := requests.AssignProvider(context.Background(), req.ID, "provider-1", "assigned")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), req.ID, model.StatusInProgress, "provider-1", "on my way")
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), req.ID, model.StatusCompleted, "provider-1", "done")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	history, err := requests.GetStatusHistory(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4) // pending, assigned, in_progress, completed

	completionNotices := notifications.byType(model.NotificationTypeRequestCompleted)
	require.Len(t, completionNotices, 1)
	assert.Equal(t, "resident-1", completionNotices[0].RecipientID)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	svc, requests, _ := newTestRequestService()
	req := createPendingRequest(t, requests)

	// pending -> completed skips assignment
	_, err := svc.UpdateStatus(context.Background(), req.ID, model.StatusCompleted, "provider-1", "")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	// cancellation is not reachable through UpdateStatus
	_, err = svc.UpdateStatus(context.Background(), req.ID, model.StatusCancelled, "resident-1", "")
	assert.Error(t, err)
}

func TestCancelAssignedRequestKeepsProviderAndNotifies(t *testing.T) {
	svc, requests, notifications := newTestRequestService()

	req := createPendingRequest(t, requests)
	_, err := requests.AssignProvider(context.Background(), req.ID, "provider-1", "assigned")
	require.NoError(t, err)

	cancelled, err := svc.CancelRequest(context.Background(), req.ID, "resident-1", "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	// Provider stays recorded for audit after a post-assignment cancel
	require.NotNil(t, cancelled.ProviderID)
	assert.Equal(t, "provider-1", *cancelled.ProviderID)

	notices := notifications.byType(model.NotificationTypeRequestCancelled)
	require.Len(t, notices, 1)
	assert.Equal(t, "provider-1", notices[0].RecipientID)
}

func TestCancelCompletedRequestFails(t *testing.T) {
	svc, requests, _ := newTestRequestService()

	req := createPendingRequest(t, requests)
	_, err := requests.AssignProvider(context.Background(), req.ID, "provider-1", "assigned")
	require.NoError(t, err)
	require.NoError(t, requests.UpdateRequestStatus(context.Background(), req.ID, model.StatusInProgress, "provider-1", ""))
	require.NoError(t, requests.UpdateRequestStatus(context.Background(), req.ID, model.StatusCompleted, "provider-1", ""))

	_, err = svc.CancelRequest(context.Background(), req.ID, "resident-1", "too late")
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}
