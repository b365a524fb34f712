package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/storage"
)

func testRelationship() *models.Relationship {
	return &models.Relationship{
		ID:        uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuthorize_Participants(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil).Times(2)

	got, err := svc.Authorize(context.Background(), rel.ID, rel.DoctorID, models.RoleDoctor)
	require.NoError(t, err)
	require.Equal(t, rel.ID, got.ID)

	_, err = svc.Authorize(context.Background(), rel.ID, rel.PatientID, models.RolePatient)
	require.NoError(t, err)
}

func TestAuthorize_DeniedIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	stranger := uuid.New()

	// Чужая связь и несуществующая связь дают одну и ту же ошибку.
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	_, errStranger := svc.Authorize(context.Background(), rel.ID, stranger, models.RolePatient)
	require.ErrorIs(t, errStranger, ErrAccessDenied)

	missing := uuid.New()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), missing).Return(nil, storage.ErrNotFound)
	_, errMissing := svc.Authorize(context.Background(), missing, stranger, models.RolePatient)
	require.ErrorIs(t, errMissing, ErrAccessDenied)
}

func TestAuthorize_RoleSideMismatch(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()

	// ID совпадает со стороной пациента, но роль заявлена врачебная.
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	_, err := svc.Authorize(context.Background(), rel.ID, rel.PatientID, models.RoleDoctor)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestSendMessage_OK(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	m.docs.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *models.Message) (*models.Message, error) {
			require.Equal(t, "привет", msg.Body)
			require.False(t, msg.IsRead)
			require.Equal(t, rel.DoctorID, msg.SenderID)

			saved := *msg
			saved.ID = "64f000000000000000000001"
			saved.CreatedAt = time.Now().UTC()
			return &saved, nil
		})

	msg, err := svc.SendMessage(context.Background(), rel.ID, rel.DoctorID, models.RoleDoctor, "  привет  ")
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, "привет", msg.Body)
}

func TestSendMessage_EmptyBody(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	// InsertMessage не ожидается.

	_, err := svc.SendMessage(context.Background(), rel.ID, rel.PatientID, models.RolePatient, "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendMessage_DeniedForStranger(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)

	_, err := svc.SendMessage(context.Background(), rel.ID, uuid.New(), models.RoleDoctor, "привет")
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestHistory_MarksUnreadThenReturnsPage(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	params := models.HistoryParams{Page: 1, PageSize: 20}
	page := &models.HistoryPage{
		Items:      []models.Message{{ID: "64f000000000000000000001", Body: "привет"}},
		TotalCount: 1,
	}

	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	// Просмотр истории подтверждает прочтение до выборки страницы.
	markRead := m.docs.EXPECT().MarkMessagesRead(gomock.Any(), rel.ID, rel.PatientID).Return(int64(1), nil)
	m.docs.EXPECT().HistoryPage(gomock.Any(), rel.ID, params).Return(page, nil).After(markRead)

	got, err := svc.History(context.Background(), rel.ID, rel.PatientID, models.RolePatient, params)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.TotalCount)
	require.Len(t, got.Items, 1)
}

func TestHistory_DeniedWithoutSideEffects(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	rel := testRelationship()
	m.docs.EXPECT().RelationshipByID(gomock.Any(), rel.ID).Return(rel, nil)
	// Ни MarkMessagesRead, ни HistoryPage не ожидаются.

	_, err := svc.History(context.Background(), rel.ID, uuid.New(), models.RolePatient, models.HistoryParams{Page: 1})
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestUnreadCount(t *testing.T) {
	t.Parallel()

	svc, m, ctrl := newSvc(t)
	defer ctrl.Finish()

	caller := uuid.New()
	m.docs.EXPECT().UnreadCount(gomock.Any(), caller).Return(int64(7), nil)

	count, err := svc.UnreadCount(context.Background(), caller)
	require.NoError(t, err)
	require.Equal(t, int64(7), count)
}
