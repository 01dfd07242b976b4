package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openkiosk/catalogd/internal/domain"
	"github.com/openkiosk/catalogd/internal/mediastore"
	"github.com/openkiosk/catalogd/internal/repository"
)

type testEnv struct {
	echo  *echo.Echo
	media *mediastore.MediaStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&domain.AdminUser{Username: "admin", Password: "admin123"}).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	media, err := mediastore.New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("mediastore: %v", err)
	}

	e := echo.New()
	api := New(
		repository.NewGormProductRepository(db, media),
		repository.NewGormAdminRepository(db),
		media,
	)
	api.RegisterRoutes(e.Group("/api"))
	return &testEnv{echo: e, media: media}
}

func (env *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return body
}

func formRequest(method, target string, fields map[string]string) *http.Request {
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, fileName, fileType string, fileData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if fileName != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, fileName))
		hdr.Set("Content-Type", fileType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func createTea(t *testing.T, env *testEnv) int64 {
	t.Helper()
	rec := env.do(t, formRequest(http.MethodPost, "/api/products", map[string]string{
		"name": "Tea", "description": "Green tea", "price": "3.50",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	product := body["product"].(map[string]interface{})
	return int64(product["id"].(float64))
}

func TestCreateProductScenario(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, formRequest(http.MethodPost, "/api/products", map[string]string{
		"name": "Tea", "description": "Green tea", "price": "3.50",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Error("success != true")
	}
	product, ok := body["product"].(map[string]interface{})
	if !ok {
		t.Fatalf("no product in response: %v", body)
	}
	if product["price"] != "3.50" {
		t.Errorf("price = %v, want the verbatim string \"3.50\"", product["price"])
	}
	if _, present := product["image"]; present {
		t.Errorf("image should be absent without an upload, got %v", product["image"])
	}

	// same POST without name must fail with the envelope
	rec = env.do(t, formRequest(http.MethodPost, "/api/products", map[string]string{
		"description": "Green tea", "price": "3.50",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Error("success != false on validation failure")
	}
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if rows, ok := body["products"].([]interface{}); !ok || len(rows) != 0 {
		t.Errorf("empty catalog should return products: [], got %v", body["products"])
	}

	for _, name := range []string{"first", "second"} {
		env.do(t, formRequest(http.MethodPost, "/api/products", map[string]string{
			"name": name, "description": "d", "price": "1",
		}))
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	body = decode(t, rec)
	rows := body["products"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("got %d products, want 2", len(rows))
	}
	if rows[0].(map[string]interface{})["name"] != "second" {
		t.Error("newest product is not first in the list")
	}
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	id := createTea(t, env)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["product"].(map[string]interface{})["name"] != "Tea" {
		t.Error("returned product does not match the created one")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/products/99999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for non-numeric id, want 400", rec.Code)
	}
}

func TestCreateProductWithImage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, multipartRequest(t, http.MethodPost, "/api/products",
		map[string]string{"name": "Tea", "description": "d", "price": "1"},
		"leaf.png", "image/png", []byte("\x89PNG data")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	image, _ := body["product"].(map[string]interface{})["image"].(string)
	if image == "" {
		t.Fatal("product.image not set after upload")
	}
	if !env.media.Exists(image) {
		t.Errorf("uploaded file %q missing from the media store", image)
	}
}

func TestCreateProductRejectsBadUpload(t *testing.T) {
	env := newTestEnv(t)

	// a .txt renamed to .png but declared as text is still rejected
	rec := env.do(t, multipartRequest(t, http.MethodPost, "/api/products",
		map[string]string{"name": "Tea", "description": "d", "price": "1"},
		"notes.png", "text/plain", []byte("not an image")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Error("success != false on rejected upload")
	}
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	id := createTea(t, env)

	rec := env.do(t, multipartRequest(t, http.MethodPut, fmt.Sprintf("/api/products/%d", id),
		map[string]string{"name": "Oolong", "description": "Roasted", "price": "4.25"},
		"new.png", "image/png", []byte("img")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	product := body["product"].(map[string]interface{})
	if product["name"] != "Oolong" || product["price"] != "4.25" {
		t.Errorf("update not applied: %v", product)
	}
	if image, _ := product["image"].(string); image == "" || !env.media.Exists(image) {
		t.Errorf("updated image %q not retrievable", product["image"])
	}

	rec = env.do(t, formRequest(http.MethodPut, "/api/products/99999", map[string]string{
		"name": "x", "description": "d", "price": "1",
	}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d for unknown id, want 404", rec.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	id := createTea(t, env)

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["success"] != true {
		t.Error("success != true on delete")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted product still readable, status = %d", rec.Code)
	}
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	login := func(username, password string) *httptest.ResponseRecorder {
		payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return env.do(t, req)
	}

	rec := login("admin", "admin123")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["success"] != true {
		t.Error("success != true on valid login")
	}

	for _, bad := range [][2]string{{"admin", "wrong"}, {"root", "admin123"}, {"", ""}} {
		rec := login(bad[0], bad[1])
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("login(%q, %q) status = %d, want 401", bad[0], bad[1], rec.Code)
		}
		if body := decode(t, rec); body["success"] != false {
			t.Error("success != false on failed login")
		}
	}
}

func TestOversizedUploadRejected(t *testing.T) {
	env := newTestEnv(t)

	big := bytes.Repeat([]byte("a"), mediastore.MaxUploadSize+1)
	rec := env.do(t, multipartRequest(t, http.MethodPost, "/api/products",
		map[string]string{"name": "Tea", "description": "d", "price": "1"},
		"big.png", "image/png", big))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Error("success != false on oversized upload")
	}
}
