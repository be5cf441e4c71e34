package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	notifymem "family-care/internal/adapters/notify/memory"
	"family-care/internal/domain/familyroles"
	"family-care/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	center := notifymem.NewCenter()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil,
		Notifier:     center,
		Inbox:        center,
		Location:     time.UTC,
		WeekStart:    time.Sunday,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_SharedFamilyMember(t *testing.T) {
	ts := newTestServer(t)

	ownerID := "owner-1"
	viewerID := "viewer-1"

	// 1) Owner registra a un familiar
	memberID := createMember(t, ts.URL, ownerID, map[string]any{
		"full_name":     "Maria Souza",
		"date_of_birth": "1958-03-04",
		"blood_type":    "O+",
		"allergies":     []string{"Penicilina"},
	})

	// 2) Otro usuario no lo ve todavía
	{
		st, _ := doReq(t, ts.URL, "GET", "/family-members/"+memberID, viewerID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before role, got %d", st)
		}
	}

	// 3) Owner le da rol viewer
	{
		st, body := doReq(t, ts.URL, "POST", "/family-members/"+memberID+"/roles", ownerID, map[string]any{
			"user_id": viewerID,
			"role":    string(familyroles.RoleViewer),
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 assign role, got %d body=%s", st, string(body))
		}
	}

	// 4) Viewer ve el perfil y su rol
	{
		st, body := doReq(t, ts.URL, "GET", "/family-members/"+memberID, viewerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get member by viewer, got %d body=%s", st, string(body))
		}
		st, body = doReq(t, ts.URL, "GET", "/me/roles", viewerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my roles, got %d body=%s", st, string(body))
		}
		var roles []map[string]any
		_ = json.Unmarshal(body, &roles)
		if len(roles) != 1 || roles[0]["role"] != "viewer" {
			t.Fatalf("unexpected roles body=%s", string(body))
		}
	}

	// 5) Viewer no puede agendar citas
	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	{
		st, _ := doReq(t, ts.URL, "POST", "/appointments", viewerID, map[string]any{
			"family_member_id": memberID,
			"title":            "Should fail",
			"scheduled_at":     at.Format(time.RFC3339),
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 create appointment by viewer, got %d", st)
		}
	}

	// 6) Owner agenda una cita y un medicamento
	createResource(t, ts.URL, ownerID, "/appointments", map[string]any{
		"family_member_id": memberID,
		"title":            "Cardiologista",
		"scheduled_at":     at.Format(time.RFC3339),
		"doctor_name":      "Dr. Lima",
	})
	medicationID := createResource(t, ts.URL, ownerID, "/medications", map[string]any{
		"family_member_id": memberID,
		"name":             "Losartana",
		"dosage":           "50mg",
		"frequency":        "daily",
		"times":            []string{"08:00", "20:00"},
	})

	// 7) Viewer ve la cita en el calendario del mes
	{
		st, body := doReq(t, ts.URL, "GET", "/calendar?month="+at.Format("2006-01"), viewerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 calendar, got %d body=%s", st, string(body))
		}
		var cal struct {
			Month string `json:"month"`
			Weeks [][]struct {
				Date  string `json:"date"`
				Total int    `json:"total"`
			} `json:"weeks"`
		}
		_ = json.Unmarshal(body, &cal)

		total := 0
		for _, week := range cal.Weeks {
			if len(week) != 7 {
				t.Fatalf("expected 7 days per week, got %d", len(week))
			}
			for _, cell := range week {
				if cell.Date == at.Format("2006-01-02") {
					total += cell.Total
				}
			}
		}
		if total != 1 {
			t.Fatalf("expected appointment on %s, body=%s", at.Format("2006-01-02"), string(body))
		}
	}

	// 8) Viewer no puede editar el medicamento
	{
		st, _ := doReq(t, ts.URL, "PATCH", "/medications/"+medicationID, viewerID, map[string]any{"dosage": "100mg"})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 patch medication by viewer, got %d", st)
		}
	}

	// 9) Dashboard del viewer cuenta lo compartido
	{
		st, body := doReq(t, ts.URL, "GET", "/dashboard", viewerID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 dashboard, got %d body=%s", st, string(body))
		}
		var stats map[string]int
		_ = json.Unmarshal(body, &stats)
		if stats["family_members"] != 1 || stats["medications"] != 1 || stats["appointments"] != 1 || stats["documents"] != 0 {
			t.Fatalf("unexpected stats body=%s", string(body))
		}
	}

	// 10) Owner revoca el rol y el viewer pierde acceso
	{
		st, body := doReq(t, ts.URL, "DELETE", "/family-members/"+memberID+"/roles/"+viewerID, ownerID, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 revoke role, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "GET", "/family-members/"+memberID, viewerID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after revoke, got %d", st)
		}
	}
}

func TestHTTP_RequiresUser(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/family-members", "/appointments", "/medications", "/documents", "/dashboard", "/calendar", "/notifications"} {
		st, _ := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, st)
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected health ok, got %d body=%s", st, string(body))
	}
}

func TestHTTP_NotificationPermission_AskedOnce(t *testing.T) {
	ts := newTestServer(t)
	userID := "user-1"

	st, body := doReq(t, ts.URL, "GET", "/notifications/permission", userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 permission, got %d body=%s", st, string(body))
	}
	var perm struct {
		Available  bool   `json:"available"`
		Permission string `json:"permission"`
	}
	_ = json.Unmarshal(body, &perm)
	if !perm.Available || perm.Permission != "default" {
		t.Fatalf("unexpected permission body=%s", string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/notifications/permission", userID, map[string]any{"answer": "denied"})
	if st != http.StatusOK {
		t.Fatalf("expected 200 answer permission, got %d body=%s", st, string(body))
	}

	// Ya denegado: no cambia aunque ahora conceda
	_, body = doReq(t, ts.URL, "POST", "/notifications/permission", userID, map[string]any{"answer": "granted"})
	_ = json.Unmarshal(body, &perm)
	if perm.Permission != "denied" {
		t.Fatalf("expected permission to stay denied, body=%s", string(body))
	}
}

func TestHTTP_DocumentUploadAndDownload(t *testing.T) {
	ts := newTestServer(t)
	ownerID := "owner-1"

	memberID := createMember(t, ts.URL, ownerID, map[string]any{"full_name": "João Souza"})
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("family_member_id", memberID)
	_ = mw.WriteField("title", "Hemograma")
	_ = mw.WriteField("document_type", "exam")
	fw, err := mw.CreateFormFile("file", "hemograma.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(pdf)
	_ = mw.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Debug-User-ID", ownerID)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 upload, got %d body=%s", res.StatusCode, string(body))
	}

	var doc struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
	}
	_ = json.Unmarshal(body, &doc)
	if doc.ID == "" || doc.MimeType != "application/pdf" {
		t.Fatalf("unexpected upload body=%s", string(body))
	}

	st, file := doReq(t, ts.URL, "GET", "/documents/"+doc.ID+"/file", ownerID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 download, got %d", st)
	}
	if !bytes.Equal(file, pdf) {
		t.Fatalf("downloaded file differs from upload")
	}

	st, _ = doReq(t, ts.URL, "GET", "/documents/"+doc.ID, "stranger", nil)
	if st != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", st)
	}
}

func createMember(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()
	return createResource(t, baseURL, userID, "/family-members", payload)
}

func createResource(t *testing.T, baseURL, userID, path string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", path, userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 POST %s, got %d body=%s", path, st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("POST %s: missing id body=%s", path, string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
