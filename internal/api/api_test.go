package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shreya9code/ewastetrack/internal/auth"
	"github.com/Shreya9code/ewastetrack/internal/db"
	"github.com/Shreya9code/ewastetrack/internal/metrics"
	"github.com/Shreya9code/ewastetrack/internal/model"
	"github.com/Shreya9code/ewastetrack/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	admin  string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	server := httptest.NewServer(NewRouter(database, testJWTSecret, metrics.New()))
	t.Cleanup(server.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), database, "admin", string(hash))
	require.NoError(t, err)

	resp, body := call(t, server.URL, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "admin", "password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var login loginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	require.NotEmpty(t, login.Token)

	return &testEnv{server: server, db: database, admin: login.Token}
}

// token mints a token as the external identity provider would.
func token(t *testing.T, accountID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testJWTSecret, accountID, role, 0)
	require.NoError(t, err)
	return tok
}

func call(t *testing.T, base, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, base+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	return call(t, e.server.URL, method, path, token, body)
}

// seedParties registers donor D1, vendor V1 (LIC-9) and company C1 (REG-5)
// and reports item EW-100 for D1.
func (e *testEnv) seedParties(t *testing.T) *model.EwasteItem {
	t.Helper()

	resp, body := e.do(t, http.MethodPut, "/donors/me", token(t, "D1", model.RoleDonor), map[string]string{"name": "Dana"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = e.do(t, http.MethodPut, "/vendors/me", token(t, "V1", model.RoleVendor), map[string]string{
		"name": "Recyclers Ltd", "licenseNumber": "LIC-9",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = e.do(t, http.MethodPut, "/companies/me", token(t, "C1", model.RoleCompany), map[string]string{
		"name": "Disposal Co", "registrationNumber": "REG-5",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodPost, "/ewastes", token(t, "D1", model.RoleDonor), map[string]any{
		"serial": "EW-100", "donorId": "D1", "category": "laptop", "weightKg": 2.5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var item model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &item))
	return &item
}

func decodeStatus(t *testing.T, body []byte) updateStatusResponse {
	t.Helper()
	var out updateStatusResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestLoginEndpoint(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "nobody", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPost, "/auth/logout", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/users", e.admin, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUnauthenticatedAccess(t *testing.T) {
	e := setupTestServer(t)

	for _, path := range []string{"/ewastes", "/ewastes/serial/EW-1", "/users", "/donors/me"} {
		resp, _ := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := e.do(t, http.MethodGet, "/ewastes", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	forged, err := auth.GenerateToken("other-secret", "V1", model.RoleVendor, 0)
	require.NoError(t, err)
	resp, _ = e.do(t, http.MethodPost, "/ewastes/update-status", forged, map[string]string{"qrId": "EW-1", "role": "vendor"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleBasedAccess(t *testing.T) {
	e := setupTestServer(t)
	vendor := token(t, "V1", model.RoleVendor)
	donor := token(t, "D1", model.RoleDonor)

	resp, _ := e.do(t, http.MethodGet, "/users", vendor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/ewastes", donor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/ewastes", vendor, map[string]string{"donorId": "D1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/vendors/me", donor, map[string]string{"licenseNumber": "LIC-1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	e := setupTestServer(t)
	item := e.seedParties(t)
	assert.Equal(t, model.StatusWaitingForPickup, item.Status)

	vendor := token(t, "V1", model.RoleVendor)
	company := token(t, "C1", model.RoleCompany)

	resp, body := e.do(t, http.MethodPost, "/ewastes/update-status", vendor, map[string]string{
		"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9", "notes": "picked up",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	out := decodeStatus(t, body)
	assert.True(t, out.Success)
	assert.Equal(t, "In Transit", out.NewStatus)
	assert.NotEmpty(t, out.Message)

	resp, body = e.do(t, http.MethodGet, "/ewastes/serial/EW-100", vendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusInTransit, got.Status)
	assert.Equal(t, "V1", got.InTransitBy)
	assert.Equal(t, "picked up", got.InTransitNotes)
	require.NotNil(t, got.InTransitAt)

	// A second pickup finds the item already moved.
	resp, body = e.do(t, http.MethodPost, "/ewastes/update-status", vendor, map[string]string{
		"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, decodeStatus(t, body).Success)

	resp, body = e.do(t, http.MethodPost, "/ewastes/update-status", company, map[string]string{
		"qrId": "EW-100", "role": "company", "registrationNo": "REG-5",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	out = decodeStatus(t, body)
	assert.True(t, out.Success)
	assert.Equal(t, "Done", out.NewStatus)

	resp, body = e.do(t, http.MethodGet, "/ewastes/"+item.ID, company, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "C1", got.CompletedBy)
	assert.Equal(t, "V1", got.InTransitBy)

	resp, _ = e.do(t, http.MethodPost, "/ewastes/update-status", company, map[string]string{
		"qrId": "EW-100", "role": "company", "registrationNo": "REG-5",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateStatusFailures(t *testing.T) {
	e := setupTestServer(t)
	e.seedParties(t)
	vendor := token(t, "V1", model.RoleVendor)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
	}{
		{"unknown item", vendor, map[string]string{"qrId": "EW-404", "role": "vendor", "licenseNo": "LIC-9"}, http.StatusNotFound},
		{"unknown role", vendor, map[string]string{"qrId": "EW-100", "role": "donor", "licenseNo": "LIC-9"}, http.StatusBadRequest},
		{"missing license", vendor, map[string]string{"qrId": "EW-100", "role": "vendor"}, http.StatusBadRequest},
		{"license under registrationNo", vendor, map[string]string{"qrId": "EW-100", "role": "vendor", "registrationNo": "LIC-9"}, http.StatusBadRequest},
		{"unknown license", vendor, map[string]string{"qrId": "EW-100", "role": "vendor", "licenseNo": "lic-9"}, http.StatusNotFound},
		{"company before pickup", token(t, "C1", model.RoleCompany), map[string]string{"qrId": "EW-100", "role": "company", "registrationNo": "REG-5"}, http.StatusBadRequest},
		{"someone else's license", token(t, "V2", model.RoleVendor), map[string]string{"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9"}, http.StatusForbidden},
		{"missing qrId", vendor, map[string]string{"role": "vendor", "licenseNo": "LIC-9"}, http.StatusBadRequest},
		{"missing role", vendor, map[string]string{"qrId": "EW-100", "licenseNo": "LIC-9"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.do(t, http.MethodPost, "/ewastes/update-status", tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			out := decodeStatus(t, body)
			assert.False(t, out.Success)
			assert.NotEmpty(t, out.Message)
		})
	}

	// None of the failures touched the item.
	resp, body := e.do(t, http.MethodGet, "/ewastes/serial/EW-100", vendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusWaitingForPickup, got.Status)
	assert.Empty(t, got.InTransitBy)
}

func TestUpdateStatusBadJSON(t *testing.T) {
	e := setupTestServer(t)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/ewastes/update-status", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token(t, "V1", model.RoleVendor))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, false, out["success"])
}

func TestConcurrentUpdateStatus(t *testing.T) {
	e := setupTestServer(t)
	e.seedParties(t)
	vendor := token(t, "V1", model.RoleVendor)

	const workers = 8
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, _ := json.Marshal(map[string]string{"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9"})
			req, err := http.NewRequest(http.MethodPost, e.server.URL+"/ewastes/update-status", bytes.NewReader(data))
			if err != nil {
				return
			}
			req.Header.Set("Authorization", "Bearer "+vendor)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejected)
}

func TestCreateEwaste(t *testing.T) {
	e := setupTestServer(t)
	donor := token(t, "D1", model.RoleDonor)

	resp, body := e.do(t, http.MethodPost, "/ewastes", donor, map[string]string{"category": "phone"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, _ = e.do(t, http.MethodPost, "/ewastes", donor, map[string]string{"donorId": "D2"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/ewastes", donor, map[string]string{"donorId": "D1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var item model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &item))
	assert.NotEmpty(t, item.ID)
	assert.NotEmpty(t, item.Serial)
	assert.Equal(t, model.StatusWaitingForPickup, item.Status)

	// Admins may report on behalf of any donor.
	resp, _ = e.do(t, http.MethodPost, "/ewastes", e.admin, map[string]string{"donorId": "D9", "serial": "EW-9"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDuplicateSerial(t *testing.T) {
	e := setupTestServer(t)
	donor := token(t, "D1", model.RoleDonor)

	resp, _ := e.do(t, http.MethodPost, "/ewastes", donor, map[string]string{"donorId": "D1", "serial": "EW-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/ewastes", donor, map[string]string{"donorId": "D1", "serial": "EW-1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "serial")
}

func TestDuplicateCredentials(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPut, "/vendors/me", token(t, "V1", model.RoleVendor), map[string]string{"licenseNumber": "LIC-9"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := e.do(t, http.MethodPut, "/vendors/me", token(t, "V2", model.RoleVendor), map[string]string{"licenseNumber": "LIC-9"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "licenseNumber")

	resp, _ = e.do(t, http.MethodPut, "/companies/me", token(t, "C1", model.RoleCompany), map[string]string{"registrationNumber": "REG-5"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = e.do(t, http.MethodPut, "/companies/me", token(t, "C2", model.RoleCompany), map[string]string{"registrationNumber": "REG-5"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "registrationNumber")

	resp, _ = e.do(t, http.MethodPut, "/vendors/me", token(t, "V3", model.RoleVendor), map[string]string{"name": "No License"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfiles(t *testing.T) {
	e := setupTestServer(t)
	vendor := token(t, "V1", model.RoleVendor)

	resp, _ := e.do(t, http.MethodGet, "/vendors/me", vendor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/vendors/me", vendor, map[string]string{"name": "Old", "licenseNumber": "LIC-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPut, "/vendors/me", vendor, map[string]string{"name": "New", "licenseNumber": "LIC-2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/vendors/me", vendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v model.Vendor
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, "V1", v.ExternalAccountID)
	assert.Equal(t, "New", v.Name)
	assert.Equal(t, "LIC-2", v.LicenseNumber)
}

func TestListByDonorExactMatch(t *testing.T) {
	e := setupTestServer(t)
	e.seedParties(t)

	var items []model.EwasteItem
	resp, body := e.do(t, http.MethodGet, "/ewastes/donor/D1", token(t, "D1", model.RoleDonor), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 1)

	resp, body = e.do(t, http.MethodGet, "/ewastes/donor/d1", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Empty(t, items)

	resp, _ = e.do(t, http.MethodGet, "/ewastes/donor/D1", token(t, "D2", model.RoleDonor), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListByStatus(t *testing.T) {
	e := setupTestServer(t)
	e.seedParties(t)
	vendor := token(t, "V1", model.RoleVendor)

	var items []model.EwasteItem
	resp, body := e.do(t, http.MethodGet, "/ewastes?status=waiting+for+pickup", vendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 1)

	resp, body = e.do(t, http.MethodGet, "/ewastes?status=done", vendor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Empty(t, items)

	resp, _ = e.do(t, http.MethodGet, "/ewastes?status=lost", vendor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMissingItem(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodGet, "/ewastes/serial/EW-404", e.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/ewastes/no-such-id", e.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateItemDetails(t *testing.T) {
	e := setupTestServer(t)
	item := e.seedParties(t)
	donor := token(t, "D1", model.RoleDonor)

	resp, body := e.do(t, http.MethodPut, "/ewastes/"+item.ID, donor, map[string]any{"category": "tablet", "weightKg": 0.7})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "tablet", got.Category)
	assert.Equal(t, "EW-100", got.Serial)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID, token(t, "D2", model.RoleDonor), map[string]string{"category": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/ewastes/update-status", token(t, "V1", model.RoleVendor), map[string]string{
		"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID, donor, map[string]string{"category": "phone"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAccept(t *testing.T) {
	e := setupTestServer(t)
	item := e.seedParties(t)
	vendor := token(t, "V1", model.RoleVendor)

	resp, _ := e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/accept", token(t, "C1", model.RoleCompany), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/accept", vendor, map[string]string{"notes": "tomorrow"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "V1", got.VendorAcceptedBy)
	assert.Equal(t, "tomorrow", got.VendorAcceptedNotes)
	assert.Equal(t, model.StatusWaitingForPickup, got.Status)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/accept", vendor, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A vendor without a profile has no license to accept with.
	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/accept", token(t, "V7", model.RoleVendor), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLegacyStatusEndpoints(t *testing.T) {
	e := setupTestServer(t)
	item := e.seedParties(t)

	resp, _ := e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/in-transit", token(t, "V1", model.RoleVendor), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/in-transit", e.admin, map[string]string{"notes": "manual"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got model.EwasteItem
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusInTransit, got.Status)
	assert.Equal(t, "admin", got.InTransitBy)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/in-transit", e.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/status", e.admin, map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The role-gated protocol has no step out of processing.
	resp, _ = e.do(t, http.MethodPost, "/ewastes/update-status", token(t, "C1", model.RoleCompany), map[string]string{
		"qrId": "EW-100", "role": "company", "registrationNo": "REG-5",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/done", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, model.StatusDone, got.Status)
	assert.Equal(t, "admin", got.CompletedBy)

	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/status", e.admin, map[string]string{"status": "in transit"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPut, "/ewastes/"+item.ID+"/status", e.admin, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPut, "/ewastes/missing/done", e.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUsersAPI(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPost, "/users", e.admin, map[string]string{"username": "ops", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/users", e.admin, map[string]string{"username": "ops", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created model.User
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, model.RoleAdmin, created.Role)
	assert.NotContains(t, string(body), "long-enough")

	resp, body = e.do(t, http.MethodPost, "/users", e.admin, map[string]string{"username": "ops", "password": "long-enough"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "username")

	var users []model.User
	resp, body = e.do(t, http.MethodGet, "/users", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)

	self, err := store.GetActiveUserByUsername(context.Background(), e.db, "admin")
	require.NoError(t, err)
	resp, _ = e.do(t, http.MethodDelete, "/users/"+strconv.FormatInt(self.ID, 10), e.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/users/"+strconv.FormatInt(created.ID, 10), e.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ops", "password": "long-enough"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePassword(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.do(t, http.MethodPut, "/auth/password", e.admin, map[string]string{
		"current_password": "wrong-one", "new_password": "new-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/auth/password", e.admin, map[string]string{
		"current_password": "password", "new_password": "new-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "new-password"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPut, "/auth/password", token(t, "V1", model.RoleVendor), map[string]string{
		"current_password": "x", "new_password": "new-password",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	e := setupTestServer(t)
	e.seedParties(t)

	resp, _ := e.do(t, http.MethodPost, "/ewastes/update-status", token(t, "V1", model.RoleVendor), map[string]string{
		"qrId": "EW-100", "role": "vendor", "licenseNo": "LIC-9",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	resp, body = e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ewastetrack_items_created_total 1")
	assert.Contains(t, string(body), `ewastetrack_transitions_total{outcome="success",role="vendor"} 1`)
}
