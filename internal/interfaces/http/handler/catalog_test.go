package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Marusmurong/mall-sub000/internal/application/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	goods      *mockGoodsService
	categories *mockCategoryService
	images     *mockImageService
	router     http.Handler
}

func newCatalogFixture(t *testing.T, maxUpload int64) *catalogFixture {
	t.Helper()
	f := &catalogFixture{
		goods:      new(mockGoodsService),
		categories: new(mockCategoryService),
		images:     new(mockImageService),
	}
	h := NewCatalogHandler(f.goods, f.categories, f.images, maxUpload, nil)
	r := newTestRouter(newTestSite(t, "alpha"), uuid.New())
	r.GET("/goods", h.ListGoods)
	r.GET("/goods/:id", h.GetGoods)
	r.GET("/categories", h.CategoryTree)
	r.POST("/admin/goods/:id/images", h.UploadImage)
	r.POST("/admin/goods/:id/stock", h.AdjustStock)
	f.router = r
	return f
}

func multipartImage(t *testing.T, field, filename string, data []byte, primary bool) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	if primary {
		require.NoError(t, mw.WriteField("primary", "true"))
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestCatalogHandler_ListGoods_UsesSiteCode(t *testing.T) {
	f := newCatalogFixture(t, 0)
	f.goods.On("ListVisible", mock.Anything, "alpha", mock.MatchedBy(func(fl catalog.GoodsListFilter) bool {
		return fl.Search == "mug" && fl.PageSize == 5
	})).Return([]catalog.GoodsListResponse{{Name: "Mug"}}, int64(11), nil)

	w := doJSON(f.router, http.MethodGet, "/goods?search=mug&page_size=5", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeEnvelope(t, w)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	f.goods.AssertExpectations(t)
}

func TestCatalogHandler_ListGoods_RejectsBadOrder(t *testing.T) {
	f := newCatalogFixture(t, 0)

	w := doJSON(f.router, http.MethodGet, "/goods?order_by=random", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.goods.AssertNotCalled(t, "ListVisible", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_GetGoods_NotVisible(t *testing.T) {
	f := newCatalogFixture(t, 0)
	f.goods.On("GetVisible", mock.Anything, "alpha", "blue-mug").Return(nil, shared.ErrNotVisible)

	w := doJSON(f.router, http.MethodGet, "/goods/blue-mug", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_VISIBLE", decodeEnvelope(t, w).Code)
}

func TestCatalogHandler_CategoryTree_ActiveOnly(t *testing.T) {
	f := newCatalogFixture(t, 0)
	f.categories.On("Tree", mock.Anything, true).Return([]*catalog.CategoryResponse{}, nil)

	w := doJSON(f.router, http.MethodGet, "/categories", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	f.categories.AssertExpectations(t)
}

func TestCatalogHandler_UploadImage(t *testing.T) {
	f := newCatalogFixture(t, 1024)
	goodsID := uuid.New()
	data := []byte("\x89PNG\r\n\x1a\nrest")
	f.images.On("Upload", mock.Anything, goodsID, mock.MatchedBy(func(req catalog.UploadImageRequest) bool {
		return req.Filename == "mug.png" && bytes.Equal(req.Data, data) && req.Primary
	})).Return(&catalog.ImageResponse{URL: "/uploads/mug.png", IsPrimary: true}, nil)

	body, contentType := multipartImage(t, "file", "mug.png", data, true)
	req := httptest.NewRequest(http.MethodPost, "/admin/goods/"+goodsID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f.images.AssertExpectations(t)
}

func TestCatalogHandler_UploadImage_TooLarge(t *testing.T) {
	f := newCatalogFixture(t, 16)
	body, contentType := multipartImage(t, "file", "big.png", bytes.Repeat([]byte("x"), 64), false)
	req := httptest.NewRequest(http.MethodPost, "/admin/goods/"+uuid.NewString()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	f.images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_UploadImage_MissingFile(t *testing.T) {
	f := newCatalogFixture(t, 1024)
	body, contentType := multipartImage(t, "image", "mug.png", []byte("x"), false)
	req := httptest.NewRequest(http.MethodPost, "/admin/goods/"+uuid.NewString()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_AdjustStock(t *testing.T) {
	f := newCatalogFixture(t, 0)
	goodsID := uuid.New()
	f.goods.On("AdjustStock", mock.Anything, goodsID, mock.Anything).Return(nil, shared.ErrInsufficientStock)

	w := doJSON(f.router, http.MethodPost, "/admin/goods/"+goodsID.String()+"/stock", map[string]any{"delta": -5, "reason": "damaged"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}
