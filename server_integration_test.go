package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func loginAs(t *testing.T, r *gin.Engine, email, password string) (token, refreshToken string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp := performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login %s failed status=%d body=%s", email, resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ = loginResp["token"].(string)
	refreshToken, _ = loginResp["refresh_token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token, refreshToken
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Login as seeded admin
	adminToken, _ := loginAs(t, r, "admin@agencia.local", "admin123")

	// 2. Admin creates a vendedor account. The email is unique per run so
	// the lifecycle steps at the end stay deterministic.
	sellerEmail := fmt.Sprintf("vendedor_%d@agencia.local", time.Now().UnixNano())
	createBody, _ := json.Marshal(map[string]any{
		"action": "create",
		"data": map[string]any{
			"name":     "Vendedor Um",
			"email":    sellerEmail,
			"password": "senha123",
			"role":     "vendedor",
		},
	})
	resp := performRequest(r, http.MethodPost, "/api/admin/usuarios", bytes.NewBuffer(createBody), adminToken, "application/json")
	if resp.Code != 201 {
		t.Fatalf("admin create failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var sellerProfile map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &sellerProfile)
	sellerUserID, _ := sellerProfile["UserID"].(float64)
	if sellerUserID == 0 {
		t.Fatalf("create response missing UserID: %+v", sellerProfile)
	}

	// 3. Login as the vendedor
	sellerToken, sellerRefresh := loginAs(t, r, sellerEmail, "senha123")

	// 4. Vendedor may not use the admin endpoint
	resp = performRequest(r, http.MethodPost, "/api/admin/usuarios", bytes.NewBuffer(createBody), sellerToken, "application/json")
	if resp.Code != 403 {
		t.Fatalf("expected 403 for vendedor on admin endpoint, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 5. Missing token is rejected before any store access
	resp = performRequest(r, http.MethodPost, "/api/admin/usuarios", bytes.NewBuffer(createBody), "", "application/json")
	if resp.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	// 6. Find a seeded program
	resp = performRequest(r, http.MethodGet, "/api/milhas/programas", nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("list programs failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var programs []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &programs)
	if len(programs) == 0 {
		t.Fatal("no seeded miles programs")
	}
	programID := programs[0]["ID"]

	// 7. Register a miles purchase (batch + miles ledger + financial ledger)
	purchaseBody, _ := json.Marshal(map[string]any{
		"programa_id":     programID,
		"fornecedor_nome": "Fornecedor Milhas LTDA",
		"quantidade":      50000,
		"custo_milheiro":  "25.00",
		"descricao":       "compra de teste",
	})
	resp = performRequest(r, http.MethodPost, "/api/milhas/compras", bytes.NewBuffer(purchaseBody), adminToken, "application/json")
	if resp.Code != 201 {
		t.Fatalf("miles purchase failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var purchase map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &purchase)
	if v, _ := purchase["valor_compra"].(string); v != "1250" && v != "1250.00" {
		t.Fatalf("unexpected purchase value: %v", purchase["valor_compra"])
	}
	lote, _ := purchase["lote"].(map[string]any)
	loteID, _ := lote["ID"].(float64)
	if loteID == 0 {
		t.Fatalf("purchase response missing lot ID: %+v", purchase)
	}

	// 8. Cost preview drawing on the new batch
	resp = performRequest(r, http.MethodGet, fmt.Sprintf("/api/milhas/custo?programa_id=%v&quantidade=10000", programID), nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("cost preview failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var preview map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &preview)
	if avail, _ := preview["disponivel"].(bool); !avail {
		t.Fatalf("expected stock to be available: %+v", preview)
	}

	// 9. Vendedor registers a sale
	saleBody, _ := json.Marshal(map[string]any{
		"cliente":         "Cliente Teste",
		"forma_pagamento": "Mercado Pago",
		"produtos": []map[string]any{
			{"tipo": "passagem", "quantidade": 1, "valor_unitario": "2500.00", "custo": "1000.00", "taxa_embarque": "100.00", "trecho": "GRU-LIS"},
		},
	})
	resp = performRequest(r, http.MethodPost, "/api/vendas", bytes.NewBuffer(saleBody), sellerToken, "application/json")
	if resp.Code != 201 {
		t.Fatalf("create sale failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 10. Import a small CSV export
	csvData := "PERÍODO,,,,,,,,\n" +
		"Data,Cliente,Trecho,Fornecedor,Custo,Taxa Embarque,Receita,Lucro,Forma Pagamento\n" +
		"05/03/2025,Cliente CSV,GRU-LIS,Fornecedor CSV,\"R$ 1.000,00\",\"R$ 100,00\",\"R$ 2.500,00\",,pix\n" +
		"06/03/2025,,GRU-MAD,,,,\"R$ 900,00\",,pix\n"
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "vendas.csv")
	_, _ = w.Write([]byte(csvData))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/api/vendas/importar", buf, sellerToken, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("import failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var report map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &report)
	if imported, _ := report["imported"].(float64); imported != 1 {
		t.Fatalf("expected 1 imported row, got %v (report %+v)", report["imported"], report)
	}
	if errs, _ := report["errors"].([]any); len(errs) != 1 {
		t.Fatalf("expected 1 rejected row, got %+v", report["errors"])
	}

	// 11. Monthly financial summary includes the purchase expense
	resp = performRequest(r, http.MethodGet, "/api/financeiro/resumo", nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("summary failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 12. Sales listing
	resp = performRequest(r, http.MethodGet, "/api/vendas", nil, sellerToken, "")
	if resp.Code != 200 {
		t.Fatalf("list sales failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 13. A token still claiming administrador does not let a non-admin
	// retire a lot; the stored role decides.
	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": sellerEmail,
		"role":  "administrador",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	staleToken, err := stale.SignedString(jwtSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/milhas/lotes/%.0f", loteID), nil, staleToken, "")
	if resp.Code != 403 {
		t.Fatalf("expected 403 retiring lot with stale admin claim, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 14. A real administrador may retire it
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/milhas/lotes/%.0f", loteID), nil, adminToken, "")
	if resp.Code != 200 {
		t.Fatalf("retire lot failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 15. Admin deactivates the vendedor
	toggleBody, _ := json.Marshal(map[string]any{
		"action": "toggle-status",
		"userId": sellerUserID,
		"data":   map[string]any{"active": false},
	})
	resp = performRequest(r, http.MethodPost, "/api/admin/usuarios", bytes.NewBuffer(toggleBody), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("toggle-status failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 16. The deactivated account cannot refresh its session
	refreshBody, _ := json.Marshal(map[string]string{"refresh_token": sellerRefresh})
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(refreshBody), "", "application/json")
	if resp.Code != 401 {
		t.Fatalf("expected 401 refreshing a deactivated account, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 17. Nor log in again
	loginBody, _ := json.Marshal(map[string]string{"email": sellerEmail, "password": "senha123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 401 {
		t.Fatalf("expected 401 logging in a deactivated account, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 18. Admin removes the account, which also cleans up its sessions
	deleteBody, _ := json.Marshal(map[string]any{
		"action": "delete",
		"userId": sellerUserID,
	})
	resp = performRequest(r, http.MethodPost, "/api/admin/usuarios", bytes.NewBuffer(deleteBody), adminToken, "application/json")
	if resp.Code != 200 {
		t.Fatalf("admin delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
}
