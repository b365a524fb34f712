package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/avdonina/clinic-backend/internal/config"
	"github.com/avdonina/clinic-backend/internal/models"
	"github.com/avdonina/clinic-backend/internal/realtime"
	"github.com/avdonina/clinic-backend/internal/service"
	"github.com/avdonina/clinic-backend/internal/storage"
	"github.com/avdonina/clinic-backend/mocks"
)

type apiFixture struct {
	router     http.Handler
	svc        *service.Service
	identities *mocks.MockIdentityStorage
	docs       *mocks.MockDocumentStorage
	hub        *realtime.Hub
}

func newAPI(t *testing.T) (*apiFixture, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	identities := mocks.NewMockIdentityStorage(ctrl)
	docs := mocks.NewMockDocumentStorage(ctrl)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			AccessSecret:    "api-access-secret",
			RefreshSecret:   "api-refresh-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
			Issuer:          "clinic-backend",
			Audience:        []string{"clinic-clients"},
		},
		OTP:  config.OtpConfig{TTL: 10 * time.Minute, Attempts: 5},
		Chat: config.ChatConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}

	svc := service.New(identities, docs, mocks.NewMockMailer(ctrl), cfg)
	gw := realtime.NewGateway(svc, realtime.NewHub(8))
	router := NewRouter(New(svc, gw, cfg.Chat), Options{Timeout: time.Second})

	return &apiFixture{
		router:     router,
		svc:        svc,
		identities: identities,
		docs:       docs,
		hub:        gw.Hub(),
	}, ctrl
}

// bearerFor выпускает валидный access-токен; identityByID для него не нужен.
func bearerFor(t *testing.T, f *apiFixture, id uuid.UUID, role models.Role) string {
	t.Helper()

	// Логин с заранее известным хэшем был бы честнее, но access-токен
	// самодостаточен: достаточно подписать его тем же сервисом.
	f.identities.EXPECT().IdentityByEmail(gomock.Any(), gomock.Any()).
		Return(&models.Identity{
			ID:           id,
			Role:         role,
			Status:       models.StatusActive,
			Email:        "bearer@example.com",
			PasswordHash: mustBcrypt(t),
		}, nil)
	f.identities.EXPECT().SetRefreshTokenHash(gomock.Any(), id, gomock.Any()).Return(nil)

	rr := doJSON(t, f.router, http.MethodPost, "/auth/login", `{"email":"bearer@example.com","password":"Abcdef1!"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Tokens.AccessToken)
	return resp.Tokens.AccessToken
}

func mustBcrypt(t *testing.T) string {
	t.Helper()

	// MinCost: в тестах важна корректность сравнения, а не стойкость.
	h, err := bcrypt.GenerateFromPassword([]byte("Abcdef1!"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func doJSON(t *testing.T, h http.Handler, method, target, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func TestAPI_RegisterPatient(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	f.identities.EXPECT().IdentityByEmail(gomock.Any(), "p@example.com").Return(nil, storage.ErrNotFound)
	f.identities.EXPECT().SaveIdentity(gomock.Any(), gomock.Any()).Return(nil)
	f.identities.EXPECT().SetRefreshTokenHash(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	rr := doJSON(t, f.router, http.MethodPost, "/auth/register",
		`{"role":"patient","email":"p@example.com","password":"Abcdef1!","full_name":"Иванов"}`, "")

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		IdentityID string          `json:"identity_id"`
		Pending    bool            `json:"pending"`
		Tokens     json.RawMessage `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Pending)
	require.NotEmpty(t, resp.Tokens)
}

func TestAPI_RegisterDoctorPending(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	f.identities.EXPECT().IdentityByEmail(gomock.Any(), "d@example.com").Return(nil, storage.ErrNotFound)
	f.identities.EXPECT().SaveIdentity(gomock.Any(), gomock.Any()).Return(nil)

	rr := doJSON(t, f.router, http.MethodPost, "/auth/register",
		`{"role":"doctor","email":"d@example.com","password":"Abcdef1!"}`, "")

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"pending":true`)
	require.NotContains(t, rr.Body.String(), "access_token")
}

func TestAPI_RegisterRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	rr := doJSON(t, f.router, http.MethodPost, "/auth/register", `{"role":"patient","surprise":1}`, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))
}

func TestAPI_LoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	f.identities.EXPECT().IdentityByEmail(gomock.Any(), "ghost@example.com").
		Return(nil, storage.ErrNotFound)

	rr := doJSON(t, f.router, http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"Abcdef1!"}`, "")

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_credentials", errCode(t, rr))
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/chat/unread"},
		{http.MethodGet, "/chat/" + uuid.NewString()},
		{http.MethodPost, "/chat"},
		{http.MethodPost, "/auth/logout"},
		{http.MethodGet, "/realtime/stream"},
	} {
		rr := doJSON(t, f.router, route.method, route.path, "", "")
		require.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
		require.Equal(t, "invalid_token", errCode(t, rr), "%s %s", route.method, route.path)
	}
}

func TestAPI_UnreadCount(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	id := uuid.New()
	token := bearerFor(t, f, id, models.RolePatient)

	f.docs.EXPECT().UnreadCount(gomock.Any(), id).Return(int64(3), nil)

	rr := doJSON(t, f.router, http.MethodGet, "/chat/unread", "", token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"unread_count":3}`, rr.Body.String())
}

func TestAPI_HistoryDeniedForStranger(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	id := uuid.New()
	token := bearerFor(t, f, id, models.RolePatient)

	relID := uuid.New()
	f.docs.EXPECT().RelationshipByID(gomock.Any(), relID).
		Return(&models.Relationship{ID: relID, DoctorID: uuid.New(), PatientID: uuid.New()}, nil)

	rr := doJSON(t, f.router, http.MethodGet, "/chat/"+relID.String(), "", token)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "access_denied", errCode(t, rr))
}

func TestAPI_HistoryPaginationAndReadFlip(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	id := uuid.New()
	token := bearerFor(t, f, id, models.RolePatient)

	relID := uuid.New()
	rel := &models.Relationship{ID: relID, DoctorID: uuid.New(), PatientID: id}

	f.docs.EXPECT().RelationshipByID(gomock.Any(), relID).Return(rel, nil)
	f.docs.EXPECT().MarkMessagesRead(gomock.Any(), relID, id).Return(int64(2), nil)
	f.docs.EXPECT().HistoryPage(gomock.Any(), relID, models.HistoryParams{Page: 2, PageSize: 10}).
		Return(&models.HistoryPage{
			Items:      []models.Message{{ID: "64f000000000000000000001", RelationshipID: relID, SenderID: rel.DoctorID, SenderRole: models.RoleDoctor, Body: "привет", IsRead: true, CreatedAt: time.Now().UTC()}},
			TotalCount: 11,
		}, nil)

	rr := doJSON(t, f.router, http.MethodGet, "/chat/"+relID.String()+"?page=2&page_size=10", "", token)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"total_count":11`)
	require.Contains(t, rr.Body.String(), `"page":2`)
}

func TestAPI_HistoryBadPageParam(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	token := bearerFor(t, f, uuid.New(), models.RolePatient)

	rr := doJSON(t, f.router, http.MethodGet, "/chat/"+uuid.NewString()+"?page=0", "", token)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))
}

func TestAPI_SendMessageBroadcastsToStreamSubscribers(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	id := uuid.New()
	token := bearerFor(t, f, id, models.RoleDoctor)

	relID := uuid.New()
	rel := &models.Relationship{ID: relID, DoctorID: id, PatientID: uuid.New()}

	// Подписчик комнаты, открывший SSE-канал ранее.
	subscriber := f.hub.Register(rel.PatientID, models.RolePatient)
	f.hub.Join(relID, subscriber.ID)

	f.docs.EXPECT().RelationshipByID(gomock.Any(), relID).Return(rel, nil)
	f.docs.EXPECT().InsertMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *models.Message) (*models.Message, error) {
			saved := *msg
			saved.ID = "64f000000000000000000001"
			saved.CreatedAt = time.Now().UTC()
			return &saved, nil
		})

	rr := doJSON(t, f.router, http.MethodPost, "/chat",
		`{"relationship_id":"`+relID.String()+`","body":"приём подтверждён"}`, token)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"приём подтверждён"`)

	select {
	case evt := <-subscriber.Events():
		require.Equal(t, realtime.EventNewMessage, evt.Type)
	default:
		t.Fatal("subscriber did not receive new_message")
	}
}

func TestAPI_Logout(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	id := uuid.New()
	token := bearerFor(t, f, id, models.RolePatient)

	f.identities.EXPECT().ClearRefreshTokenHash(gomock.Any(), id).Return(nil)

	rr := doJSON(t, f.router, http.MethodPost, "/auth/logout", "", token)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAPI_StreamEmitsConnectedAndDelivers(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	token := bearerFor(t, f, uuid.New(), models.RolePatient)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Первое событие — connected с conn_id.
	sc := bufio.NewScanner(resp.Body)
	var connected struct {
		Type    string `json:"type"`
		Payload struct {
			ConnID string `json:"conn_id"`
		} `json:"payload"`
	}
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &connected))
		break
	}
	require.Equal(t, realtime.EventConnected, connected.Type)
	require.NotEmpty(t, connected.Payload.ConnID)

	// Событие, отправленное в hub, доезжает до SSE-клиента.
	conn, ok := f.hub.Conn(connected.Payload.ConnID)
	require.True(t, ok)
	room := uuid.New()
	f.hub.Join(room, conn.ID)
	f.hub.Broadcast(room, realtime.Event{Type: realtime.EventUserTyping})

	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		require.Contains(t, line, realtime.EventUserTyping)
		return
	}
	t.Fatal("typing event did not arrive over SSE")
}

func TestAPI_PushEventForeignConnRejected(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	token := bearerFor(t, f, uuid.New(), models.RolePatient)

	// Соединение принадлежит другому identity.
	foreign := f.hub.Register(uuid.New(), models.RolePatient)

	rr := doJSON(t, f.router, http.MethodPost, "/realtime/"+foreign.ID+"/events",
		`{"type":"join_room","relationship_id":"`+uuid.NewString()+`"}`, token)

	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Equal(t, "access_denied", errCode(t, rr))
}

func TestAPI_PushEventUnknownConn(t *testing.T) {
	t.Parallel()

	f, ctrl := newAPI(t)
	defer ctrl.Finish()

	token := bearerFor(t, f, uuid.New(), models.RolePatient)

	rr := doJSON(t, f.router, http.MethodPost, "/realtime/deadbeef/events",
		`{"type":"join_room","relationship_id":"`+uuid.NewString()+`"}`, token)

	require.Equal(t, http.StatusNotFound, rr.Code)
}
