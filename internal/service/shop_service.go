package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"avatio/internal/cache"
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ShopCodeTTL is how long an issued verification code stays valid.
const ShopCodeTTL = 30 * time.Minute

// Supported shop platforms.
const (
	PlatformBooth   = "booth"
	PlatformGumroad = "gumroad"
)

// ShopFetcher downloads the public page of a shop.
type ShopFetcher interface {
	Fetch(ctx context.Context, shopURL string) ([]byte, error)
}

// AgentFetcher fetches shop pages with the fiber HTTP client.
type AgentFetcher struct {
	Timeout time.Duration
}

// Fetch implements ShopFetcher.
func (f AgentFetcher) Fetch(ctx context.Context, shopURL string) ([]byte, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	agent := fiber.Get(shopURL).Timeout(timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("shop page returned status %d", status)
	}
	return body, nil
}

// ShopInput names a shop by platform and public URL.
type ShopInput struct {
	Platform string `json:"platform" validate:"required,oneof=booth gumroad"`
	ShopURL  string `json:"shopUrl" validate:"required,url,max=512"`
}

// ShopCode is returned to the user to place on their shop page.
type ShopCode struct {
	Platform  string    `json:"platform"`
	ShopID    string    `json:"shopId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ShopService verifies that users own the shops they link.
type ShopService struct {
	shops   repository.ShopRepository
	badges  repository.BadgeRepository
	fetcher ShopFetcher
	cache   *cache.Cache
	Now     func() time.Time
}

// NewShopService returns a new ShopService.
func NewShopService(shops repository.ShopRepository, badges repository.BadgeRepository, fetcher ShopFetcher, c *cache.Cache) *ShopService {
	return &ShopService{shops: shops, badges: badges, fetcher: fetcher, cache: c, Now: time.Now}
}

// IssueCode creates a fresh code for the shop, replacing any earlier one.
func (s *ShopService) IssueCode(ctx context.Context, userID uint, in ShopInput) (*ShopCode, error) {
	shopID, err := ParseShopID(in.Platform, in.ShopURL)
	if err != nil {
		return nil, err
	}

	code := &models.ShopVerificationCode{
		UserID:    userID,
		Platform:  in.Platform,
		ShopID:    shopID,
		Code:      "avatio-" + uuid.NewString(),
		ExpiresAt: s.Now().Add(ShopCodeTTL),
	}
	if err := s.shops.PutCode(ctx, code); err != nil {
		return nil, err
	}
	return &ShopCode{Platform: code.Platform, ShopID: shopID, Code: code.Code, ExpiresAt: code.ExpiresAt}, nil
}

// Verify checks the shop page for the issued code and links the shop on success.
func (s *ShopService) Verify(ctx context.Context, userID uint, in ShopInput) (*models.UserShop, error) {
	shopID, err := ParseShopID(in.Platform, in.ShopURL)
	if err != nil {
		return nil, err
	}

	code, err := s.shops.GetCode(ctx, userID, in.Platform, shopID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("No verification code issued for this shop")
		}
		return nil, err
	}
	now := s.Now()
	if code.Expired(now) {
		return nil, models.NewValidationError("Verification code expired")
	}

	page, err := s.fetcher.Fetch(ctx, in.ShopURL)
	if err != nil {
		return nil, models.NewUpstreamError("Shop", err)
	}
	if !bytes.Contains(page, []byte(code.Code)) {
		return nil, models.NewValidationError("Verification code not found on shop page")
	}

	shop := &models.UserShop{
		UserID:     userID,
		Platform:   in.Platform,
		ShopID:     shopID,
		ShopURL:    in.ShopURL,
		VerifiedAt: now,
	}
	if err := s.shops.Verify(ctx, shop); err != nil {
		return nil, err
	}
	if _, err := s.badges.Grant(ctx, userID, models.BadgeShopOwner); err != nil {
		return nil, err
	}
	if err := s.cache.Purge(ctx, cache.UserKey(userID)); err != nil {
		middleware.Logger.WarnContext(ctx, "cache purge failed", "key", cache.UserKey(userID), "error", err)
	}
	return shop, nil
}

// ParseShopID extracts the platform's shop identifier from a public shop URL.
func ParseShopID(platform, shopURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(shopURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", models.NewValidationError("Invalid shop URL")
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch platform {
	case PlatformBooth:
		id = strings.TrimSuffix(host, ".booth.pm")
		if id == host {
			id = ""
		}
	case PlatformGumroad:
		switch {
		case host == "gumroad.com" || host == "www.gumroad.com":
			id, _, _ = strings.Cut(strings.Trim(u.Path, "/"), "/")
		case strings.HasSuffix(host, ".gumroad.com"):
			id = strings.TrimSuffix(host, ".gumroad.com")
		}
	default:
		return "", models.NewValidationError("platform must be one of: booth, gumroad")
	}

	id = strings.ToLower(id)
	if id == "" || id == "www" || strings.Contains(id, ".") {
		return "", models.NewValidationError("Shop URL does not match platform " + platform)
	}
	return id, nil
}
