package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"obralink-backend/internal/models"
)

func seedProject(ts *testServer, name string) *models.Project {
	return ts.store.addProject(models.Project{
		Name:       name,
		Address:    "Calle Falsa 123",
		ClientName: "Cliente Demo",
		StartDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:     models.StatusActive,
	})
}

func TestCreateUpdate_NoFiles(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Residencia Villa Verde")

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title": {"Cimientos listos"},
		"date":  {"2024-05-01"},
		"stage": {"Cimentacion"},
	}, nil)
	w := ts.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Cimientos listos", resp.Title)
	assert.Equal(t, "2024-05-01", resp.Date)
	assert.Equal(t, "Cimentacion", resp.Stage)
	assert.Equal(t, []models.Attachment{}, resp.Images)
	assert.Equal(t, models.DefaultResponsableID, resp.ResponsableID)

	assert.Equal(t, 1, ts.store.updateCount(project.ID))
}

func TestCreateUpdate_MissingRequiredFields(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Obra Centro")

	cases := map[string]map[string][]string{
		"empty title":   {"title": {""}, "date": {"2024-05-01"}, "stage": {"Cimentacion"}},
		"missing date":  {"title": {"Avance"}, "stage": {"Cimentacion"}},
		"missing stage": {"title": {"Avance"}, "date": {"2024-05-01"}},
		"unknown stage": {"title": {"Avance"}, "date": {"2024-05-01"}, "stage": {"Pintura"}},
		"bad date":      {"title": {"Avance"}, "date": {"01/05/2024"}, "stage": {"Cimentacion"}},
	}

	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", fields, nil)
			w := ts.do(req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp models.MessageResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Faltan campos obligatorios", resp.Message)
		})
	}

	assert.Equal(t, 0, ts.store.updateCount(project.ID))
}

func TestCreateUpdate_UnknownProject(t *testing.T) {
	ts := newTestServer(t)

	req := multipartRequest(t, "/api/v1/projects/6a6a1fbb-1111-4222-8333-444455556666/updates", map[string][]string{
		"title": {"Avance"},
		"date":  {"2024-05-01"},
		"stage": {"Estructura"},
	}, nil)
	w := ts.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUpdate_WithFiles(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Torre Norte")

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title":      {"Losa del segundo nivel"},
		"date":       {"2024-06-10"},
		"stage":      {"Estructura"},
		"image_urls": {fakeBlobBase + "projects/" + project.ID.String() + "/pre-uploaded.jpg"},
	}, []formFile{
		{field: "files", filename: "muro-a.jpg", content: []byte("jpeg bytes a")},
		{field: "files", filename: "informe.pdf", content: []byte("pdf bytes")},
	})
	w := ts.do(req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Images, 3)

	// Client-uploaded URLs come first, fallback files follow in selection order.
	assert.Contains(t, resp.Images[0].URL, "pre-uploaded.jpg")
	assert.Equal(t, models.AttachmentKindImage, resp.Images[0].Kind)
	assert.Contains(t, resp.Images[1].URL, "muro-a.jpg")
	assert.Equal(t, models.AttachmentKindImage, resp.Images[1].Kind)
	assert.Contains(t, resp.Images[2].URL, "informe.pdf")
	assert.Equal(t, models.AttachmentKindFile, resp.Images[2].Kind)

	// Both fallback files landed under the project's blob prefix.
	for path := range ts.blob.objects {
		assert.True(t, strings.HasPrefix(path, "projects/"+project.ID.String()+"/"), path)
	}
}

func TestCreateUpdate_UploadFailureAbortsSubmission(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Casa Lago")
	ts.blob.failSubstring = "planta-b"

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title": {"Avance general"},
		"date":  {"2024-07-01"},
		"stage": {"Instalaciones"},
	}, []formFile{
		{field: "files", filename: "planta-a.jpg", content: []byte("aaa")},
		{field: "files", filename: "planta-b.jpg", content: []byte("bbb")},
	})
	w := ts.do(req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, ts.store.updateCount(project.ID), "no record may exist after an aborted submission")

	// The file that did transfer was reclaimed, not left orphaned.
	assert.Empty(t, ts.blob.objects)
	found := false
	for _, path := range ts.blob.deleted {
		if strings.Contains(path, "planta-a.jpg") {
			found = true
		}
	}
	assert.True(t, found, "expected compensating delete for the completed upload")
}

func TestCreateUpdate_StageRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Residencia Robles")

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title": {"Pintura interior terminada"},
		"date":  {"2024-08-20"},
		"stage": {"Acabados"},
	}, nil)
	require.Equal(t, http.StatusCreated, ts.do(req).Code)

	listReq, _ := http.NewRequest("GET", "/api/v1/projects/"+project.ID.String()+"/updates", nil)
	w := ts.do(listReq)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.UpdateListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Updates, 1)
	assert.Equal(t, "Acabados", resp.Updates[0].Stage)
}

func TestListUpdates_MostRecentFirst(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Plaza Sur")

	for i, date := range []string{"2024-03-01", "2024-05-01", "2024-04-01"} {
		req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
			"title": {fmt.Sprintf("Avance %d", i+1)},
			"date":  {date},
			"stage": {"Estructura"},
		}, nil)
		require.Equal(t, http.StatusCreated, ts.do(req).Code)
	}

	listReq, _ := http.NewRequest("GET", "/api/v1/projects/"+project.ID.String()+"/updates", nil)
	w := ts.do(listReq)

	var resp models.UpdateListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Updates, 3)
	assert.Equal(t, "2024-05-01", resp.Updates[0].Date)
	assert.Equal(t, "2024-04-01", resp.Updates[1].Date)
	assert.Equal(t, "2024-03-01", resp.Updates[2].Date)
}

func TestDeleteAttachment(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Bodega Industrial")

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title": {"Tuberías instaladas"},
		"date":  {"2024-09-05"},
		"stage": {"Instalaciones"},
	}, []formFile{
		{field: "files", filename: "tuberia-1.jpg", content: []byte("uno")},
		{field: "files", filename: "tuberia-2.jpg", content: []byte("dos")},
	})
	w := ts.do(req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Images, 2)

	target := created.Images[0].URL
	body, _ := json.Marshal(models.DeleteAttachmentRequest{URL: target})
	delReq, _ := http.NewRequest("DELETE",
		"/api/v1/projects/"+project.ID.String()+"/updates/"+created.ID+"/attachments",
		strings.NewReader(string(body)))
	delReq.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusOK, ts.do(delReq).Code)

	getReq, _ := http.NewRequest("GET", "/api/v1/projects/"+project.ID.String()+"/updates/"+created.ID, nil)
	w = ts.do(getReq)
	require.Equal(t, http.StatusOK, w.Code)

	var detail models.UpdateDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Update.Images, 1)
	assert.NotEqual(t, target, detail.Update.Images[0].URL)

	// The backing blob went with the attachment.
	path, ok := ts.blob.PathFromPublicURL(target)
	require.True(t, ok)
	assert.Contains(t, ts.blob.deleted, path)
}

func TestDeleteUpdate(t *testing.T) {
	ts := newTestServer(t)
	project := seedProject(ts, "Chalet Pinar")

	req := multipartRequest(t, "/api/v1/projects/"+project.ID.String()+"/updates", map[string][]string{
		"title": {"Demolición completada"},
		"date":  {"2024-02-10"},
		"stage": {"Demolicion"},
	}, []formFile{
		{field: "files", filename: "antes.jpg", content: []byte("x")},
	})
	w := ts.do(req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	delReq, _ := http.NewRequest("DELETE", "/api/v1/projects/"+project.ID.String()+"/updates/"+created.ID, nil)
	require.Equal(t, http.StatusOK, ts.do(delReq).Code)

	assert.Equal(t, 0, ts.store.updateCount(project.ID))
	assert.Empty(t, ts.blob.objects, "update blobs are removed with the record")
}
