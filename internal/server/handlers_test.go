package server

import (
	"bytes"
	"errors"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"avatio/internal/models"
	"avatio/internal/service"
	"avatio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute_ErrorShape(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := errorOf(t, resp)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, models.CodeNotFound, body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")
	reporter := ts.user(t, "reporter")
	setup := testutil.CreateSetup(t, ts.db, owner.ID, "Casual", nil)

	t.Run("no reason", func(t *testing.T) {
		resp := ts.as(t, reporter, http.MethodPost, "/api/reports/setups", map[string]any{"setupId": setup.ID})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "At least one reason is required", errorOf(t, resp).Message)
	})

	t.Run("missing setup", func(t *testing.T) {
		resp := ts.as(t, reporter, http.MethodPost, "/api/reports/setups", map[string]any{"setupId": 9999, "spam": true})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, models.CodeNotFound, errorOf(t, resp).Code)
	})

	t.Run("self report", func(t *testing.T) {
		resp := ts.as(t, reporter, http.MethodPost, "/api/reports/users", map[string]any{"reportedUserId": reporter.ID, "spam": true})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("success", func(t *testing.T) {
		resp := ts.as(t, reporter, http.MethodPost, "/api/reports/setups",
			map[string]any{"setupId": setup.ID, "spam": true, "comment": "copied"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "null", readBody(t, resp))
		ts.waitSideEffects()

		var report models.SetupReport
		require.NoError(t, ts.db.First(&report, "setup_id = ?", setup.ID).Error)
		assert.Equal(t, reporter.ID, report.ReporterID)
		assert.False(t, report.IsResolved)

		var audit models.AuditLog
		require.NoError(t, ts.db.First(&audit, "action = ?", "report.create").Error)
		require.NotNil(t, audit.ActorID)
		assert.Equal(t, reporter.ID, *audit.ActorID)
		assert.Equal(t, string(models.ReportSetups), audit.TargetType)
	})

	t.Run("admin lists and resolves", func(t *testing.T) {
		admin := ts.admin(t, "mod")

		resp := ts.as(t, admin, http.MethodGet, "/api/admin/reports/setups?resolved=false", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Paginated[models.SetupReport]](t, resp)
		require.Len(t, page.Data, 1)
		id := page.Data[0].ID

		resp = ts.as(t, admin, http.MethodPatch, "/api/admin/reports/setups/"+itoa(id), map[string]any{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = ts.as(t, admin, http.MethodPatch, "/api/admin/reports/setups/"+itoa(id), map[string]any{"isResolved": true})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ts.as(t, admin, http.MethodGet, "/api/admin/reports/setups?resolved=false", nil)
		page = decode[models.Paginated[models.SetupReport]](t, resp)
		assert.Empty(t, page.Data)

		resp = ts.as(t, admin, http.MethodGet, "/api/admin/reports/posts", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateSetup_SanitizesDescription(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")

	resp := ts.as(t, owner, http.MethodPost, "/api/setups", map[string]any{
		"name":        "Night <b>walk</b>",
		"description": `<p onclick="x()">hello</p><script>alert(1)</script>`,
		"tags":        []string{"Casual"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[IDResponse](t, resp)
	require.NotZero(t, created.ID)

	resp = ts.do(t, http.MethodGet, "/api/setups/"+itoa(created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "public")
	setup := decode[models.Setup](t, resp)
	assert.Equal(t, "<p>hello</p>", setup.Description)
	assert.Equal(t, "Night <b>walk</b>", setup.Name, "names are plain text")
	assert.Equal(t, owner.ID, setup.UserID)
}

func TestCreateSetup_RejectsBeforeWriting(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]any{"description": "x"}},
		{"not an object", `"just a string"`},
		{"foreign image", map[string]any{"name": "x", "images": []map[string]any{{"url": "https://elsewhere.test/a.webp", "width": 1, "height": 1}}}},
		{"unknown item", map[string]any{"name": "x", "items": []map[string]any{{"itemId": 404}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.as(t, owner, http.MethodPost, "/api/setups", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	var count int64
	ts.db.Model(&models.Setup{}).Count(&count)
	assert.Zero(t, count)
}

func TestListSetups_PaginationEnvelope(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")
	for _, name := range []string{"a", "b", "c"} {
		testutil.CreateSetup(t, ts.db, owner.ID, name, nil)
	}

	resp := ts.do(t, http.MethodGet, "/api/setups?page=2&limit=2", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Paginated[models.Setup]](t, resp)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.Limit)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	resp = ts.as(t, owner, http.MethodGet, "/api/setups", nil)
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))
}

func TestDeleteSetup(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")
	other := ts.user(t, "other")

	t.Run("not owner", func(t *testing.T) {
		setup := testutil.CreateSetup(t, ts.db, owner.ID, "mine", nil)
		resp := ts.as(t, other, http.MethodDelete, "/api/setups/"+itoa(setup.ID), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("clean delete", func(t *testing.T) {
		url := testPublicURL + "/setup/clean.webp"
		ts.store.PutAt("setup/clean.webp", []byte("x"), time.Now())
		setup := testutil.CreateSetup(t, ts.db, owner.ID, "clean", []string{url})

		resp := ts.as(t, owner, http.MethodDelete, "/api/setups/"+itoa(setup.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "null", readBody(t, resp))
		_, exists := ts.store.Get("setup/clean.webp")
		assert.False(t, exists)
	})

	t.Run("storage failure is a warning", func(t *testing.T) {
		url := testPublicURL + "/setup/stuck.webp"
		ts.store.PutAt("setup/stuck.webp", []byte("x"), time.Now())
		ts.store.DeleteErr = func(key string) error { return errors.New("bucket offline") }
		t.Cleanup(func() { ts.store.DeleteErr = nil })
		setup := testutil.CreateSetup(t, ts.db, owner.ID, "stuck", []string{url})

		resp := ts.as(t, owner, http.MethodDelete, "/api/setups/"+itoa(setup.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := decode[service.DeleteSetupResult](t, resp)
		assert.Contains(t, result.Warning, "1 of 1 images")

		var count int64
		ts.db.Model(&models.Setup{}).Where("id = ?", setup.ID).Count(&count)
		assert.Zero(t, count)
	})
}

func TestUpdateMe_PurgesProfileCache(t *testing.T) {
	ts := newTestServer(t)
	u := ts.user(t, "alice")

	resp := ts.do(t, http.MethodGet, "/api/users/"+itoa(u.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", decode[models.User](t, resp).Name)

	resp = ts.as(t, u, http.MethodPatch, "/api/me", map[string]any{"name": "Alice B", "bio": "<script>x</script>hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", readBody(t, resp))

	resp = ts.do(t, http.MethodGet, "/api/users/"+itoa(u.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[models.User](t, resp)
	assert.Equal(t, "Alice B", profile.Name)
	assert.Equal(t, "hi", profile.Bio)
}

func TestUpdateMe_RejectsForeignAvatar(t *testing.T) {
	ts := newTestServer(t)
	u := ts.user(t, "alice")

	resp := ts.as(t, u, http.MethodPatch, "/api/me", map[string]any{"image": testPublicURL + "/setup/a.webp"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "image must be an uploaded avatar", errorOf(t, resp).Message)
}

func TestRelations(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.user(t, "alice")
	bob := ts.user(t, "bob")

	resp := ts.as(t, alice, http.MethodPost, "/api/users/"+itoa(alice.ID)+"/follow", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "You cannot follow yourself", errorOf(t, resp).Message)

	resp = ts.as(t, alice, http.MethodPost, "/api/users/"+itoa(bob.ID)+"/follow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// A repeated follow is a no-op.
	resp = ts.as(t, alice, http.MethodPost, "/api/users/"+itoa(bob.ID)+"/follow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ts.waitSideEffects()

	resp = ts.do(t, http.MethodGet, "/api/users/"+itoa(bob.ID)+"/followers", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	followers := decode[models.Paginated[models.User]](t, resp)
	require.Len(t, followers.Data, 1)
	assert.Equal(t, alice.ID, followers.Data[0].ID)

	var notes int64
	ts.db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", bob.ID, models.NotificationFollow).Count(&notes)
	assert.EqualValues(t, 1, notes)

	resp = ts.as(t, alice, http.MethodPost, "/api/users/9999/follow", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t, "admin")
	alice := ts.user(t, "alice")
	bob := ts.user(t, "bob")

	resp := ts.as(t, admin, http.MethodPost, "/api/admin/notifications", map[string]any{
		"userId": alice.ID, "type": "system", "title": "Welcome", "message": "<b>hi</b><script>x</script>",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sent := decode[IDResponse](t, resp)
	require.NotZero(t, sent.ID)

	resp = ts.as(t, admin, http.MethodPost, "/api/admin/notifications", map[string]any{
		"userId": alice.ID, "type": "follow", "title": "nope",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.as(t, alice, http.MethodGet, "/api/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[map[string]int64](t, resp)["count"])

	resp = ts.as(t, bob, http.MethodPatch, "/api/notifications/"+itoa(sent.ID), map[string]any{"read": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.as(t, alice, http.MethodPatch, "/api/notifications/"+itoa(sent.ID), map[string]any{"read": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.as(t, alice, http.MethodGet, "/api/notifications?unreadOnly=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.Paginated[models.Notification]](t, resp).Data)

	resp = ts.as(t, alice, http.MethodGet, "/api/notifications", nil)
	list := decode[models.Paginated[models.Notification]](t, resp)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "<b>hi</b>", list.Data[0].Message)
	assert.NotNil(t, list.Data[0].ReadAt)
}

func TestAdminModeration_WritesAudit(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t, "admin")
	target := ts.user(t, "target")
	setup := testutil.CreateSetup(t, ts.db, target.ID, "Loud", nil)

	resp := ts.as(t, admin, http.MethodPost, "/api/admin/users/"+itoa(admin.ID)+"/ban", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.as(t, admin, http.MethodPatch, "/api/admin/setups/"+itoa(setup.ID)+"/visibility",
		map[string]any{"hidden": true, "reason": "spam"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/setups/"+itoa(setup.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.as(t, target, http.MethodGet, "/api/setups/"+itoa(setup.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/admin/users/"+itoa(target.ID)+"/ban", map[string]any{"reason": "spam"}, testAdminKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ts.waitSideEffects()

	resp = ts.as(t, admin, http.MethodGet, "/api/admin/audit-logs?action=user.ban", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[models.Paginated[models.AuditLog]](t, resp)
	require.Len(t, logs.Data, 1)
	assert.Nil(t, logs.Data[0].ActorID)
	assert.Equal(t, models.ActorSystem, logs.Data[0].ActorKind)
	assert.Equal(t, itoa(target.ID), logs.Data[0].TargetID)

	resp = ts.as(t, admin, http.MethodGet, "/api/admin/audit-logs?action=setup.visibility", nil)
	logs = decode[models.Paginated[models.AuditLog]](t, resp)
	require.Len(t, logs.Data, 1)
	require.NotNil(t, logs.Data[0].ActorID)
	assert.Equal(t, admin.ID, *logs.Data[0].ActorID)
}

func TestCronSweep(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.user(t, "owner")
	old := time.Now().Add(-48 * time.Hour)

	ts.store.PutAt("setup/used.webp", []byte("x"), old)
	ts.store.PutAt("setup/orphan.webp", []byte("x"), old)
	ts.store.PutAt("setup/fresh.webp", []byte("x"), time.Now())
	ts.store.PutAt("avatar/orphan.webp", []byte("x"), old)
	testutil.CreateSetup(t, ts.db, owner.ID, "kept", []string{testPublicURL + "/setup/used.webp"})

	resp := ts.do(t, http.MethodGet, "/api/cron/unused-images", nil, testCronSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	preview := decode[service.SweepReport](t, resp)
	assert.True(t, preview.DryRun)
	assert.Equal(t, []string{"setup/orphan.webp"}, preview.Setup)
	assert.Equal(t, []string{"avatar/orphan.webp"}, preview.User)
	_, exists := ts.store.Get("setup/orphan.webp")
	assert.True(t, exists, "preview must not delete")

	resp = ts.do(t, http.MethodDelete, "/api/cron/unused-images", nil, testCronSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[service.SweepReport](t, resp)
	assert.False(t, report.DryRun)
	assert.Empty(t, report.Failed)

	_, exists = ts.store.Get("setup/orphan.webp")
	assert.False(t, exists)
	_, exists = ts.store.Get("setup/used.webp")
	assert.True(t, exists)
	_, exists = ts.store.Get("setup/fresh.webp")
	assert.True(t, exists)
}

func multipartImage(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, u *models.User, target, contentType string, data []byte) *http.Response {
	t.Helper()
	body, ct := multipartImage(t, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/images?target="+target, body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, u))
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestUploadImage(t *testing.T) {
	ts := newTestServer(t)
	u := ts.user(t, "uploader")
	png := testutil.TinyPNG(t, 8, 4, color.RGBA{R: 200, A: 255})

	t.Run("setup target", func(t *testing.T) {
		resp := ts.upload(t, u, "setup", "image/png", png)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		img := decode[service.UploadedImage](t, resp)
		assert.True(t, strings.HasPrefix(img.URL, testPublicURL+"/setup/"), img.URL)
		assert.True(t, strings.HasSuffix(img.URL, ".webp"))
		assert.Equal(t, 8, img.Width)
		assert.Equal(t, 4, img.Height)
		assert.NotEmpty(t, img.ThemeColors)

		_, stored := ts.store.Get(strings.TrimPrefix(img.URL, testPublicURL+"/"))
		assert.True(t, stored)
	})

	t.Run("avatar target", func(t *testing.T) {
		resp := ts.upload(t, u, "avatar", "image/png", png)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		img := decode[service.UploadedImage](t, resp)
		assert.True(t, strings.HasPrefix(img.URL, testPublicURL+"/avatar/"), img.URL)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name        string
			target      string
			contentType string
			data        []byte
			wantMsg     string
		}{
			{"unknown target", "banner", "image/png", png, "target must be one of: setup, avatar"},
			{"not an image", "setup", "image/png", []byte("plain text, not pixels"), "Invalid image type"},
			{"type mismatch", "setup", "image/jpeg", png, "Image content type mismatch"},
			{"too large", "setup", "image/png", bytes.Repeat([]byte{0x89}, testMaxUploadMB*1024*1024+10), "File too large (max 1MB)"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := ts.upload(t, u, tt.target, tt.contentType, tt.data)
				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Equal(t, tt.wantMsg, errorOf(t, resp).Message)
			})
		}
	})

	t.Run("banned", func(t *testing.T) {
		banned := ts.bannedUser(t, "banned")
		resp := ts.upload(t, banned, "setup", "image/png", png)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestUserViews_ModerationStateOnlyForAdminsAndSelf(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.admin(t, "admin")
	viewer := ts.user(t, "viewer")
	target := ts.bannedUser(t, "target")
	require.NoError(t, ts.db.Model(target).Update("ban_reason", "spam").Error)

	for name, resp := range map[string]*http.Response{
		"anonymous": ts.do(t, http.MethodGet, "/api/users/"+itoa(target.ID), nil, ""),
		"member":    ts.as(t, viewer, http.MethodGet, "/api/users/"+itoa(target.ID), nil),
	} {
		require.Equal(t, http.StatusOK, resp.StatusCode, name)
		body := readBody(t, resp)
		assert.NotContains(t, body, "isBanned", name)
		assert.NotContains(t, body, "spam", name)
		assert.Contains(t, body, `"handle":"`+target.Handle+`"`, name)
	}

	resp := ts.as(t, target, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	self := decode[models.ModeratedUser](t, resp)
	assert.True(t, self.IsBanned)
	assert.Equal(t, "spam", self.BanReason)

	resp = ts.as(t, admin, http.MethodGet, "/api/admin/users?q="+target.Handle, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Paginated[models.ModeratedUser]](t, resp)
	require.Len(t, page.Data, 1)
	assert.True(t, page.Data[0].IsBanned)
	assert.Equal(t, target.ID, page.Data[0].ID)
}
