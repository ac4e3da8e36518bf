package server

import (
	"context"
	"net/http"
	"testing"

	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageFetcher struct {
	body string
}

func (f *pageFetcher) Fetch(context.Context, string) ([]byte, error) {
	return []byte(f.body), nil
}

func TestShopVerification(t *testing.T) {
	ts := newTestServer(t)
	fetcher := &pageFetcher{}
	ts.srv.shopService = service.NewShopService(
		repository.NewShopRepository(ts.db), repository.NewBadgeRepository(ts.db), fetcher, ts.srv.cache)
	u := ts.user(t, "seller")
	shop := map[string]any{"platform": "booth", "shopUrl": "https://seller.booth.pm/"}

	resp := ts.as(t, u, http.MethodPost, "/api/me/shops/verify", shop)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No verification code issued for this shop", errorOf(t, resp).Message)

	resp = ts.as(t, u, http.MethodPost, "/api/me/shops/code", map[string]any{"platform": "booth", "shopUrl": "https://example.com/"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.as(t, u, http.MethodPost, "/api/me/shops/code", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	code := decode[service.ShopCode](t, resp)
	assert.Equal(t, "seller", code.ShopID)
	require.NotEmpty(t, code.Code)

	fetcher.body = "<html>no code here</html>"
	resp = ts.as(t, u, http.MethodPost, "/api/me/shops/verify", shop)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Verification code not found on shop page", errorOf(t, resp).Message)

	fetcher.body = "<html><p>" + code.Code + "</p></html>"
	resp = ts.as(t, u, http.MethodPost, "/api/me/shops/verify", shop)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	linked := decode[map[string]string](t, resp)
	assert.Equal(t, "booth", linked["platform"])
	assert.Equal(t, "seller", linked["shopId"])

	var badges int64
	ts.db.Model(&models.Badge{}).Where("user_id = ? AND kind = ?", u.ID, models.BadgeShopOwner).Count(&badges)
	assert.EqualValues(t, 1, badges)
}
